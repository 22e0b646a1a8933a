package entity

import "time"

// Regimes tributários suportados pela calculadora de impostos.
const (
	RegimeSimples   = "simples"   // Simples Nacional (CRT 1)
	RegimePresumido = "presumido" // Lucro Presumido: PIS/COFINS cumulativo (CRT 3)
	RegimeReal      = "real"      // Lucro Real: PIS/COFINS não cumulativo (CRT 3)
)

// Ambientes SEFAZ (tpAmb).
const (
	AmbienteProducao    = "1"
	AmbienteHomologacao = "2"
)

// ConfiguracaoFiscal guarda os parâmetros de emissão por empresa: regime,
// UF de emissão, ambiente e os contadores de numeração por modelo.
// O próximo número é a única fonte de verdade da numeração e só pode ser
// consumido por incremento atômico (repositório transacional).
type ConfiguracaoFiscal struct {
	ID        string
	EmpresaID string

	RegimeTributario string
	UFEmissao        string
	Ambiente         string

	SerieNFe          int
	ProximoNumeroNFe  int
	SerieNFCe         int
	ProximoNumeroNFCe int

	CSCNFCe    string // Código de Segurança do Contribuinte (QR Code NFCe)
	IDTokenCSC string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CRT devolve o Código de Regime Tributário do grupo emit.
func (c *ConfiguracaoFiscal) CRT() string {
	if c.RegimeTributario == RegimeSimples {
		return "1"
	}
	return "3"
}

// SerieParaModelo devolve a série configurada para o modelo (55 ou 65).
func (c *ConfiguracaoFiscal) SerieParaModelo(modelo string) int {
	if modelo == ModeloNFCe {
		return c.SerieNFCe
	}
	return c.SerieNFe
}
