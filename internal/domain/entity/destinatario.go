package entity

import "time"

// Indicador da IE do destinatário (indIEDest).
const (
	IndIEContribuinte    = "1" // Contribuinte ICMS
	IndIEIsento          = "2" // Contribuinte isento de inscrição
	IndIENaoContribuinte = "9" // Não contribuinte
)

// Destinatario é o comprador (pessoa física ou jurídica) da nota.
// O documento (CPF ou CNPJ) é discriminado pelo tamanho: 11 ou 14 dígitos.
type Destinatario struct {
	ID        string
	Nome      string
	CPFCNPJ   string // somente dígitos; 11 = CPF, 14 = CNPJ
	IE        string
	IndIEDest string
	Endereco  Endereco
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PessoaFisica indica se o documento é CPF.
func (d *Destinatario) PessoaFisica() bool {
	return len(d.CPFCNPJ) == 11
}
