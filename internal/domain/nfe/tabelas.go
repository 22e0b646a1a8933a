package nfe

import "github.com/shopspring/decimal"

// =============================================================================
// Alíquotas internas de ICMS por UF (vigência 2024)
// =============================================================================

var aliquotasICMSInternas = map[string]string{
	"AC": "19", "AL": "19", "AP": "18", "AM": "20", "BA": "20.5",
	"CE": "20", "DF": "20", "ES": "17", "GO": "19", "MA": "22",
	"MT": "17", "MS": "17", "MG": "18", "PA": "19", "PB": "20",
	"PR": "19.5", "PE": "20.5", "PI": "21", "RJ": "22", "RN": "20",
	"RS": "17", "RO": "19.5", "RR": "20", "SC": "17", "SP": "18",
	"SE": "19", "TO": "20",
}

// aliquotaICMSPadrao é usada quando a UF não consta na tabela.
const aliquotaICMSPadrao = "18"

// ufsOrigemSulSudeste: origens que aplicam 7% para destinos das regiões
// Norte, Nordeste, Centro-Oeste e ES (Resolução do Senado 22/1989).
// ES fica fora deste conjunto mesmo sendo Sudeste.
var ufsOrigemSulSudeste = map[string]bool{
	"SP": true, "RJ": true, "MG": true, "PR": true, "SC": true, "RS": true,
}

// =============================================================================
// Alíquotas de PIS/COFINS por regime tributário
// =============================================================================

var aliquotasPISCOFINS = map[string][2]string{
	RegimeSimplesNacional: {"0", "0"},      // destacado em guia única, não na nota
	RegimeCumulativo:      {"0.65", "3"},   // Lucro Presumido
	RegimeNaoCumulativo:   {"1.65", "7.6"}, // Lucro Real
}

// Identificadores de regime usados pela tabela (espelham entity).
const (
	RegimeSimplesNacional = "simples"
	RegimeCumulativo      = "presumido"
	RegimeNaoCumulativo   = "real"
)

// TabelaAliquotas resolve alíquotas de ICMS e PIS/COFINS. Os dados padrão são
// compilados; DefinirInterestadual permite sobrepor pares origem/destino
// específicos (convênios estaduais) sem alterar a tabela base.
type TabelaAliquotas struct {
	internas       map[string]decimal.Decimal
	interestaduais map[string]decimal.Decimal // chave "ORIGEM:DESTINO"
}

// NewTabelaAliquotas constrói a tabela com os valores padrão.
func NewTabelaAliquotas() *TabelaAliquotas {
	t := &TabelaAliquotas{
		internas:       make(map[string]decimal.Decimal, len(aliquotasICMSInternas)),
		interestaduais: make(map[string]decimal.Decimal),
	}
	for uf, a := range aliquotasICMSInternas {
		t.internas[uf] = decimal.RequireFromString(a)
	}
	return t
}

// DefinirInterestadual sobrepõe a alíquota de um par origem/destino.
func (t *TabelaAliquotas) DefinirInterestadual(origem, destino string, aliquota decimal.Decimal) {
	t.interestaduais[origem+":"+destino] = aliquota
}

// ICMSInterna devolve a alíquota interna da UF (padrão 18% se desconhecida).
func (t *TabelaAliquotas) ICMSInterna(uf string) decimal.Decimal {
	if a, ok := t.internas[uf]; ok {
		return a
	}
	return decimal.RequireFromString(aliquotaICMSPadrao)
}

// ICMS resolve a alíquota para a operação origem→destino:
// operação interna usa a alíquota da UF; interestadual usa a sobreposição do
// par, se houver, ou a regra geral: 7% de Sul/Sudeste (exceto ES) para as
// demais regiões, 12% nos demais casos.
func (t *TabelaAliquotas) ICMS(origem, destino string) decimal.Decimal {
	if destino == "" || origem == destino {
		return t.ICMSInterna(origem)
	}
	if a, ok := t.interestaduais[origem+":"+destino]; ok {
		return a
	}
	if ufsOrigemSulSudeste[origem] && !ufsOrigemSulSudeste[destino] {
		return decimal.RequireFromString("7")
	}
	return decimal.RequireFromString("12")
}

// PISCOFINS devolve as alíquotas (PIS, COFINS) do regime tributário.
func (t *TabelaAliquotas) PISCOFINS(regime string) (pis, cofins decimal.Decimal) {
	par, ok := aliquotasPISCOFINS[regime]
	if !ok {
		par = aliquotasPISCOFINS[RegimeCumulativo]
	}
	return decimal.RequireFromString(par[0]), decimal.RequireFromString(par[1])
}
