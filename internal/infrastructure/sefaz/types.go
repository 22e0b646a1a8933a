// Package sefaz implementa a infraestrutura de emissão: montagem do XML da
// NF-e 4.00, QR Code da NFC-e, eventos e o cliente SOAP dos web services.
package sefaz

import (
	"strings"
	"time"
	"unicode"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NsNFe é o namespace do Portal da NF-e, usado em todos os documentos e eventos.
const NsNFe = "http://www.portalfiscal.inf.br/nfe"

// VersaoLeiaute é a versão do leiaute da NF-e.
const VersaoLeiaute = "4.00"

// VersaoEvento é a versão do leiaute de eventos.
const VersaoEvento = "1.00"

// NomeDestHomologacao é o nome fixo do destinatário em ambiente de homologação.
const NomeDestHomologacao = "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"

// NotaBuildContext reúne tudo que o montador precisa para gerar o XML.
type NotaBuildContext struct {
	Nota        *entity.NotaFiscal
	Config      *entity.ConfiguracaoFiscal
	VersaoProc  string // verProc do grupo ide
	DataEmissao *time.Time
}

// ── formatação de campos ──────────────────────────────────────────────────────

// formatDecimal formata montos para o leiaute: ponto decimal, sem separador de
// milhar, casas fixas (2 para moeda, 4 para quantidades, 10 para unitários).
func formatDecimal(d decimal.Decimal, casas int32) string {
	return d.Round(casas).StringFixed(casas)
}

// formatDataEmissao formata dhEmi no fuso de Brasília (UTC-3).
func formatDataEmissao(t time.Time) string {
	return t.In(time.FixedZone("-03:00", -3*3600)).Format("2006-01-02T15:04:05-07:00")
}

// sanitizeText remove acentos e caracteres de controle dos campos de texto do
// XML. Os validadores da SEFAZ rejeitam payloads com caracteres fora do
// conjunto básico.
func sanitizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		if r < 0x20 {
			return ' '
		}
		return r
	}, out)
	return strings.TrimSpace(out)
}

// onlyDigits deixa apenas dígitos 0-9 (CNPJ, CEP, fone).
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
