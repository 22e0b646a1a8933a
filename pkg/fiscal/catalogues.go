// Package fiscal contém catálogos alinhados ao leiaute da NF-e 4.00 (Manual de
// Orientação do Contribuinte) e às tabelas do IBGE.
package fiscal

// =============================================================================
// Códigos de UF do IBGE (Tabela de cUF usada na chave de acesso e no grupo ide)
// =============================================================================

// UFCodes mapeia a sigla da UF para o código numérico do IBGE.
var UFCodes = map[string]string{
	"AC": "12", "AL": "27", "AP": "16", "AM": "13", "BA": "29",
	"CE": "23", "DF": "53", "ES": "32", "GO": "52", "MA": "21",
	"MT": "51", "MS": "50", "MG": "31", "PA": "15", "PB": "25",
	"PR": "41", "PE": "26", "PI": "22", "RJ": "33", "RN": "24",
	"RS": "43", "RO": "11", "RR": "14", "SC": "42", "SP": "35",
	"SE": "28", "TO": "17",
}

// UFFromCode mapeia o código IBGE de volta para a sigla da UF.
var UFFromCode = func() map[string]string {
	m := make(map[string]string, len(UFCodes))
	for uf, code := range UFCodes {
		m[code] = uf
	}
	return m
}()

// =============================================================================
// Inscrição Estadual: quantidade de dígitos esperada por UF (verificação
// aproximada; alguns estados admitem mais de um formato)
// =============================================================================

// IEDigitCounts mapeia a UF para os tamanhos de IE aceitos.
var IEDigitCounts = map[string][]int{
	"AC": {13}, "AL": {9}, "AP": {9}, "AM": {9}, "BA": {8, 9},
	"CE": {9}, "DF": {13}, "ES": {9}, "GO": {9}, "MA": {9},
	"MT": {11}, "MS": {9}, "MG": {13}, "PA": {9}, "PB": {9},
	"PR": {10}, "PE": {9, 14}, "PI": {9}, "RJ": {8}, "RN": {9, 10},
	"RS": {10}, "RO": {14}, "RR": {9}, "SC": {9}, "SP": {12},
	"SE": {9}, "TO": {9, 11},
}

// =============================================================================
// CST de ICMS (regime normal) e CSOSN (Simples Nacional): Tabela B do leiaute
// =============================================================================

const (
	CSTICMSTributadaIntegral = "00" // Tributada integralmente
	CSTICMSComST             = "10" // Tributada com cobrança de ICMS por ST
	CSTICMSReducaoBase       = "20" // Com redução de base de cálculo
	CSTICMSIsenta            = "40" // Isenta
	CSTICMSDiferimento       = "51" // Diferimento
	CSTICMSCobradoST         = "60" // ICMS cobrado anteriormente por ST
	CSTICMSOutras            = "90" // Outras

	CSOSNCredito      = "101" // Tributada com permissão de crédito
	CSOSNSemCredito   = "102" // Tributada sem permissão de crédito
	CSOSNComST        = "201" // Com permissão de crédito e cobrança de ICMS por ST
	CSOSNSemCreditoST = "202" // Sem permissão de crédito e cobrança de ICMS por ST
	CSOSNICMSRetidoST = "500" // ICMS cobrado anteriormente por ST
	CSOSNOutros       = "900" // Outros
)

// ValidCSTICMS contém os CST de ICMS suportados pelo montador de XML.
var ValidCSTICMS = map[string]bool{
	CSTICMSTributadaIntegral: true, CSTICMSComST: true, CSTICMSReducaoBase: true,
	CSTICMSIsenta: true, CSTICMSDiferimento: true, CSTICMSCobradoST: true,
	CSTICMSOutras: true,
}

// ValidCSOSN contém os CSOSN do Simples Nacional suportados.
var ValidCSOSN = map[string]bool{
	CSOSNCredito: true, CSOSNSemCredito: true, CSOSNComST: true,
	CSOSNSemCreditoST: true, CSOSNICMSRetidoST: true, CSOSNOutros: true,
}

// CST de PIS/COFINS (Tabela 4.3.3/4.3.4).
const (
	CSTPisCofinsAliquotaBasica = "01" // Operação tributável, alíquota básica
	CSTPisCofinsAliquotaDifer  = "02" // Alíquota diferenciada
	CSTPisCofinsPorQuantidade  = "03" // Alíquota por unidade de medida
	CSTPisCofinsOutras         = "99" // Outras operações
)

// CST de IPI usado quando o imposto não é destacado.
const CSTIPINaoTributada = "53" // Saída não tributada

// =============================================================================
// Meios de pagamento (tPag: Tabela do grupo detPag) e modalidade de frete
// =============================================================================

const (
	PagDinheiro      = "01"
	PagCheque        = "02"
	PagCartaoCredito = "03"
	PagCartaoDebito  = "04"
	PagPix           = "17"
	PagSemPagamento  = "90"
)

// ValidPaymentCodes contém os meios de pagamento aceitos no detPag.
var ValidPaymentCodes = map[string]bool{
	PagDinheiro: true, PagCheque: true, PagCartaoCredito: true,
	PagCartaoDebito: true, PagPix: true, PagSemPagamento: true,
}

const (
	FreteEmitente       = "0" // Contratação por conta do remetente (CIF)
	FreteDestinatario   = "1" // Contratação por conta do destinatário (FOB)
	FreteTerceiros      = "2"
	FreteProprioRemet   = "3"
	FreteProprioDestino = "4"
	FreteSemOcorrencia  = "9" // Sem ocorrência de transporte
)
