// Package fiscal orquestra o ciclo de vida dos documentos fiscais: emissão,
// cancelamento, carta de correção, inutilização e consulta.
package fiscal

import (
	"context"
	"crypto/tls"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz"
)

// TxRunner executa fn dentro de uma transação com os repositórios fiscais
// atados a ela.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		notaRepo repository.NotaFiscalRepository,
		configRepo repository.ConfiguracaoFiscalRepository,
		eventoRepo repository.EventoFiscalRepository,
	) error) error
}

// Assinador aplica a assinatura XML-DSig no documento.
type Assinador interface {
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}

// Transmissor envia documentos e eventos aos webservices da SEFAZ. O
// certificado é a identidade mTLS do emitente na chamada, o mesmo A1 usado
// na assinatura; StatusServico não tem emitente e usa a identidade padrão
// do transporte.
type Transmissor interface {
	EnviarLote(ctx context.Context, xmlAssinado []byte, idLote, modelo string, cert tls.Certificate) (*sefaz.ProtocoloSefaz, error)
	ConsultarProtocolo(ctx context.Context, chave, modelo string, cert tls.Certificate) (*sefaz.ProtocoloSefaz, error)
	EnviarEvento(ctx context.Context, envEvento []byte, modelo string, cert tls.Certificate) (*sefaz.RetornoEvento, error)
	Inutilizar(ctx context.Context, inutXML []byte, modelo string, cert tls.Certificate) (*sefaz.RetornoInutilizacao, error)
	StatusServico(ctx context.Context, modelo string) (*sefaz.RetornoStatus, error)
}

// GeradorDANFE gera a representação impressa (PDF) da nota autorizada e
// devolve a referência do arquivo gerado. Pode ser nil na injeção: a
// emissão nunca falha por causa do PDF.
type GeradorDANFE interface {
	Gerar(nota *entity.NotaFiscal) (string, error)
}

// ResultadoEmissao resume o desfecho de uma operação fiscal para o chamador.
type ResultadoEmissao struct {
	NotaID    string   `json:"nota_id"`
	Status    string   `json:"status"`
	CStat     string   `json:"cstat,omitempty"`
	Mensagem  string   `json:"mensagem,omitempty"`
	Chave     string   `json:"chave,omitempty"`
	Protocolo string   `json:"protocolo,omitempty"`
	Avisos    []string `json:"avisos,omitempty"`
}

// Códigos cStat da SEFAZ com tratamento especial.
var (
	// cStatAutorizada: uso autorizado (150 = autorização fora de prazo).
	cStatAutorizada = map[string]bool{"100": true, "150": true}

	// cStatDuplicidade: a SEFAZ já conhece o documento; a reemissão é
	// idempotente e o resultado é sucesso, não erro.
	cStatDuplicidade = map[string]bool{"204": true, "205": true, "206": true}

	// cStatEventoRegistrado: evento homologado (155 = fora de prazo).
	cStatEventoRegistrado = map[string]bool{"135": true, "155": true}

	// cStatInutilizada: faixa homologada.
	cStatInutilizada = map[string]bool{"102": true}
)
