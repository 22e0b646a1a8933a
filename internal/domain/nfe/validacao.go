// Validação pré-emissão da nota fiscal: erros bloqueiam a emissão; avisos são
// devolvidos ao chamador sem impedir a operação.
package nfe

import (
	"fmt"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/pkg/fiscal"
	"github.com/shopspring/decimal"
)

// MaxItensPorNota é o limite de itens do leiaute 4.00.
const MaxItensPorNota = 990

// toleranciaTotais é a diferença admitida entre o total informado e o somado.
// Divergência acima disso vira aviso, não erro: dados legados podem divergir
// por arredondamento manual.
var toleranciaTotais = decimal.RequireFromString("0.01")

// ResultadoValidacao separa os problemas bloqueantes dos avisos.
type ResultadoValidacao struct {
	Erros  []string
	Avisos []string
}

// Valida indica ausência de erros bloqueantes.
func (r *ResultadoValidacao) Valida() bool { return len(r.Erros) == 0 }

func (r *ResultadoValidacao) erro(format string, args ...any) {
	r.Erros = append(r.Erros, fmt.Sprintf(format, args...))
}

func (r *ResultadoValidacao) aviso(format string, args ...any) {
	r.Avisos = append(r.Avisos, fmt.Sprintf(format, args...))
}

// ValidarNota roda as verificações estruturais e de negócio antes da emissão.
func ValidarNota(nota *entity.NotaFiscal, config *entity.ConfiguracaoFiscal, cert *entity.CertificadoDigital, agora time.Time) *ResultadoValidacao {
	r := &ResultadoValidacao{}
	if nota == nil {
		r.erro("nota fiscal nula")
		return r
	}
	if config == nil {
		r.erro("empresa sem configuração fiscal")
		return r
	}

	// ── Emitente ────────────────────────────────────────────────────────────
	if err := fiscal.ValidateCNPJ(nota.Emitente.CNPJ); err != nil {
		r.erro("CNPJ do emitente: %v", err)
	}
	if nota.Emitente.RazaoSocial == "" {
		r.erro("razão social do emitente é obrigatória")
	}
	if nota.Emitente.IE != "" {
		if tamanhos, ok := fiscal.IEDigitCounts[config.UFEmissao]; ok {
			valido := false
			for _, t := range tamanhos {
				if len(nota.Emitente.IE) == t {
					valido = true
					break
				}
			}
			if !valido {
				r.aviso("IE do emitente com %d dígitos não corresponde ao formato de %s", len(nota.Emitente.IE), config.UFEmissao)
			}
		}
	}

	// ── Destinatário ────────────────────────────────────────────────────────
	switch len(nota.Destinatario.CPFCNPJ) {
	case 11:
		if err := fiscal.ValidateCPF(nota.Destinatario.CPFCNPJ); err != nil {
			r.erro("CPF do destinatário: %v", err)
		}
	case 14:
		if err := fiscal.ValidateCNPJ(nota.Destinatario.CPFCNPJ); err != nil {
			r.erro("CNPJ do destinatário: %v", err)
		}
	default:
		// NFCe admite consumidor não identificado
		if nota.Modelo != entity.ModeloNFCe {
			r.erro("documento do destinatário deve ter 11 (CPF) ou 14 (CNPJ) dígitos")
		}
	}
	if nota.Modelo == entity.ModeloNFe && !nota.Destinatario.Endereco.Completo() {
		r.erro("endereço do destinatário incompleto para NF-e")
	}

	// ── Itens ───────────────────────────────────────────────────────────────
	if len(nota.Itens) == 0 {
		r.erro("a nota deve ter pelo menos um item")
	}
	if len(nota.Itens) > MaxItensPorNota {
		r.erro("a nota tem %d itens; o máximo é %d", len(nota.Itens), MaxItensPorNota)
	}
	var somaItens decimal.Decimal
	for i := range nota.Itens {
		it := &nota.Itens[i]
		num := i + 1
		if err := fiscal.ValidateNCM(it.NCM); err != nil {
			r.erro("item %d: %v", num, err)
		}
		if err := fiscal.ValidateCEST(it.CEST); err != nil {
			r.erro("item %d: %v", num, err)
		}
		if it.CFOP == "" {
			r.erro("item %d: CFOP é obrigatório", num)
		}
		if it.Quantidade.Sign() <= 0 {
			r.erro("item %d: quantidade deve ser positiva", num)
		}
		esperado := it.Quantidade.Mul(it.ValorUnitario).Round(2)
		if it.ValorTotal.Sub(esperado).Abs().GreaterThan(toleranciaTotais) {
			r.aviso("item %d: total %s difere de quantidade × unitário (%s)", num, it.ValorTotal.StringFixed(2), esperado.StringFixed(2))
		}
		somaItens = somaItens.Add(it.ValorTotal)
	}

	// ── Totais ──────────────────────────────────────────────────────────────
	if len(nota.Itens) > 0 {
		esperado := somaItens.Sub(nota.ValorDesconto).
			Add(nota.ValorFrete).Add(nota.ValorSeguro).Add(nota.ValorOutros).
			Add(nota.ValorIPI).Round(2)
		if nota.ValorTotal.Sub(esperado).Abs().GreaterThan(toleranciaTotais) {
			r.aviso("valor total %s difere do calculado %s", nota.ValorTotal.StringFixed(2), esperado.StringFixed(2))
		}
	}

	// ── Certificado ─────────────────────────────────────────────────────────
	if cert == nil {
		r.erro("nenhum certificado digital cadastrado para a empresa")
	} else {
		switch cert.Status(agora) {
		case entity.CertificadoExpirado:
			r.erro("certificado digital expirado em %s", cert.ValidadeFim.Format("2006-01-02"))
		case entity.CertificadoExpirando:
			r.aviso("certificado digital expira em %s", cert.ValidadeFim.Format("2006-01-02"))
		}
	}

	return r
}

// ValidarJustificativa verifica o texto de cancelamento/carta de correção.
func ValidarJustificativa(texto string) error {
	n := len([]rune(texto))
	if n < entity.DescricaoEventoMin {
		return fmt.Errorf("%w: justificativa deve ter ao menos %d caracteres, tem %d", domain.ErrValidacao, entity.DescricaoEventoMin, n)
	}
	if n > entity.DescricaoEventoMax {
		return fmt.Errorf("%w: justificativa deve ter no máximo %d caracteres, tem %d", domain.ErrValidacao, entity.DescricaoEventoMax, n)
	}
	return nil
}
