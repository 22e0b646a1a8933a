// Montagem dos XMLs de eventos fiscais (cancelamento e carta de correção),
// do pedido de inutilização de faixa e do procNFe de arquivamento.

package sefaz

import (
	"fmt"
	"strings"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	"github.com/fiscalbr/nfe-api/pkg/fiscal"
)

const (
	descEventoCancelamento  = "Cancelamento"
	descEventoCartaCorrecao = "Carta de Correcao"

	// Texto obrigatório do leiaute da carta de correção, sem acentos.
	condicaoUsoCCe = "A Carta de Correcao e disciplinada pelo paragrafo 1o-A do art. 7o do Convenio S/N, de 15 de dezembro de 1970 e pode ser utilizada para regularizacao de erro ocorrido na emissao de documento fiscal, desde que o erro nao esteja relacionado com: I - as variaveis que determinam o valor do imposto tais como: base de calculo, aliquota, diferenca de preco, quantidade, valor da operacao ou da prestacao; II - a correcao de dados cadastrais que implique mudanca do remetente ou do destinatario; III - a data de emissao ou de saida."
)

// EventoBuilderService monta os XMLs de eventos antes da assinatura.
type EventoBuilderService struct{}

func NewEventoBuilderService() *EventoBuilderService {
	return &EventoBuilderService{}
}

// MontarEventoCancelamento monta o evento 110111. O detEvento carrega o
// protocolo de autorização e a justificativa do emitente.
func (s *EventoBuilderService) MontarEventoCancelamento(chave, cnpj, uf, ambiente, protocolo, justificativa string, dhEvento time.Time) ([]byte, error) {
	if protocolo == "" {
		return nil, fmt.Errorf("%w: cancelamento exige o protocolo de autorização", domain.ErrValidacao)
	}
	det := `<descEvento>` + descEventoCancelamento + `</descEvento>` +
		`<nProt>` + protocolo + `</nProt>` +
		`<xJust>` + sanitizeText(justificativa) + `</xJust>`
	return s.montarEvento(chave, cnpj, uf, ambiente, entity.EventoCancelamento, 1, det, dhEvento)
}

// MontarEventoCartaCorrecao monta o evento 110110 com a sequência do evento
// dentro da nota (1..20).
func (s *EventoBuilderService) MontarEventoCartaCorrecao(chave, cnpj, uf, ambiente, correcao string, sequencia int, dhEvento time.Time) ([]byte, error) {
	if sequencia < 1 || sequencia > entity.MaxCartasCorrecao {
		return nil, fmt.Errorf("%w: sequência de carta de correção fora de 1..%d", domain.ErrValidacao, entity.MaxCartasCorrecao)
	}
	det := `<descEvento>` + descEventoCartaCorrecao + `</descEvento>` +
		`<xCorrecao>` + sanitizeText(correcao) + `</xCorrecao>` +
		`<xCondUso>` + condicaoUsoCCe + `</xCondUso>`
	return s.montarEvento(chave, cnpj, uf, ambiente, entity.EventoCartaCorrecao, sequencia, det, dhEvento)
}

func (s *EventoBuilderService) montarEvento(chave, cnpj, uf, ambiente, tpEvento string, sequencia int, detEvento string, dhEvento time.Time) ([]byte, error) {
	if err := nfe.ValidateChave(chave); err != nil {
		return nil, err
	}
	cOrgao, ok := fiscal.UFCodes[uf]
	if !ok {
		return nil, fmt.Errorf("%w: UF %q desconhecida", domain.ErrValidacao, uf)
	}

	id := fmt.Sprintf("ID%s%s%02d", tpEvento, chave, sequencia)

	var sb strings.Builder
	sb.WriteString(`<evento xmlns="` + NsNFe + `" versao="` + VersaoEvento + `">`)
	sb.WriteString(`<infEvento Id="` + id + `">`)
	sb.WriteString(`<cOrgao>` + cOrgao + `</cOrgao>`)
	sb.WriteString(`<tpAmb>` + ambiente + `</tpAmb>`)
	sb.WriteString(`<CNPJ>` + onlyDigits(cnpj) + `</CNPJ>`)
	sb.WriteString(`<chNFe>` + chave + `</chNFe>`)
	sb.WriteString(`<dhEvento>` + formatDataEmissao(dhEvento) + `</dhEvento>`)
	sb.WriteString(`<tpEvento>` + tpEvento + `</tpEvento>`)
	sb.WriteString(fmt.Sprintf(`<nSeqEvento>%d</nSeqEvento>`, sequencia))
	sb.WriteString(`<verEvento>` + VersaoEvento + `</verEvento>`)
	sb.WriteString(`<detEvento versao="` + VersaoEvento + `">`)
	sb.WriteString(detEvento)
	sb.WriteString(`</detEvento>`)
	sb.WriteString(`</infEvento>`)
	sb.WriteString(`</evento>`)
	return []byte(sb.String()), nil
}

// MontarEnvEvento envelopa o evento já assinado no lote de envio.
func (s *EventoBuilderService) MontarEnvEvento(eventoAssinado []byte, idLote string) []byte {
	var sb strings.Builder
	sb.WriteString(`<envEvento xmlns="` + NsNFe + `" versao="` + VersaoEvento + `">`)
	sb.WriteString(`<idLote>` + idLote + `</idLote>`)
	sb.Write(stripXMLDecl(eventoAssinado))
	sb.WriteString(`</envEvento>`)
	return []byte(sb.String())
}

// MontarInutilizacao monta o pedido de inutilização da faixa de numeração
// serie/nIni..nFin do modelo informado, referente ao ano corrente do pedido.
func (s *EventoBuilderService) MontarInutilizacao(uf, ambiente, cnpj, modelo string, serie, nIni, nFin int, justificativa string, ano time.Time) ([]byte, error) {
	cUF, ok := fiscal.UFCodes[uf]
	if !ok {
		return nil, fmt.Errorf("%w: UF %q desconhecida", domain.ErrValidacao, uf)
	}
	if modelo != entity.ModeloNFe && modelo != entity.ModeloNFCe {
		return nil, fmt.Errorf("%w: modelo %q inválido", domain.ErrValidacao, modelo)
	}
	if nIni < 1 || nFin < nIni {
		return nil, fmt.Errorf("%w: faixa de numeração inválida (%d..%d)", domain.ErrValidacao, nIni, nFin)
	}
	cnpj = onlyDigits(cnpj)
	anoYY := ano.Format("06")

	id := fmt.Sprintf("ID%s%s%s%s%03d%09d%09d", cUF, anoYY, cnpj, modelo, serie, nIni, nFin)

	var sb strings.Builder
	sb.WriteString(`<inutNFe xmlns="` + NsNFe + `" versao="` + VersaoLeiaute + `">`)
	sb.WriteString(`<infInut Id="` + id + `">`)
	sb.WriteString(`<tpAmb>` + ambiente + `</tpAmb>`)
	sb.WriteString(`<xServ>INUTILIZAR</xServ>`)
	sb.WriteString(`<cUF>` + cUF + `</cUF>`)
	sb.WriteString(`<ano>` + anoYY + `</ano>`)
	sb.WriteString(`<CNPJ>` + cnpj + `</CNPJ>`)
	sb.WriteString(`<mod>` + modelo + `</mod>`)
	sb.WriteString(fmt.Sprintf(`<serie>%d</serie>`, serie))
	sb.WriteString(fmt.Sprintf(`<nNFIni>%d</nNFIni>`, nIni))
	sb.WriteString(fmt.Sprintf(`<nNFFin>%d</nNFFin>`, nFin))
	sb.WriteString(`<xJust>` + sanitizeText(justificativa) + `</xJust>`)
	sb.WriteString(`</infInut>`)
	sb.WriteString(`</inutNFe>`)
	return []byte(sb.String()), nil
}

// MontarProcNFe consolida o documento autorizado com o protocolo da SEFAZ no
// nfeProc de arquivamento e distribuição.
func (s *EventoBuilderService) MontarProcNFe(nfeAssinada []byte, prot *ProtocoloSefaz, ambiente string) ([]byte, error) {
	if prot == nil || prot.Protocolo == "" {
		return nil, fmt.Errorf("%w: protocolo de autorização ausente", domain.ErrValidacao)
	}
	var sb strings.Builder
	sb.WriteString(`<nfeProc xmlns="` + NsNFe + `" versao="` + VersaoLeiaute + `">`)
	sb.Write(stripXMLDecl(nfeAssinada))
	sb.WriteString(`<protNFe versao="` + VersaoLeiaute + `">`)
	sb.WriteString(`<infProt>`)
	sb.WriteString(`<tpAmb>` + ambiente + `</tpAmb>`)
	sb.WriteString(`<chNFe>` + prot.Chave + `</chNFe>`)
	sb.WriteString(`<dhRecbto>` + prot.Recebimento + `</dhRecbto>`)
	sb.WriteString(`<nProt>` + prot.Protocolo + `</nProt>`)
	if prot.Digest != "" {
		sb.WriteString(`<digVal>` + prot.Digest + `</digVal>`)
	}
	sb.WriteString(`<cStat>` + prot.CStat + `</cStat>`)
	sb.WriteString(`<xMotivo>` + prot.XMotivo + `</xMotivo>`)
	sb.WriteString(`</infProt>`)
	sb.WriteString(`</protNFe>`)
	sb.WriteString(`</nfeProc>`)
	return []byte(sb.String()), nil
}

// stripXMLDecl remove a declaração <?xml ...?> de um fragmento que será
// embutido em outro documento.
func stripXMLDecl(xml []byte) []byte {
	s := strings.TrimSpace(string(xml))
	if strings.HasPrefix(s, "<?xml") {
		if fim := strings.Index(s, "?>"); fim >= 0 {
			s = strings.TrimSpace(s[fim+2:])
		}
	}
	return []byte(s)
}
