package entity

import "time"

// Endereco agrupa os campos de endereço usados nos blocos enderEmit/enderDest.
// O código do município segue a tabela do IBGE (7 dígitos).
type Endereco struct {
	Logradouro      string
	Numero          string
	Complemento     string
	Bairro          string
	CodigoMunicipio string
	Municipio       string
	UF              string
	CEP             string
	Telefone        string
}

// Completo indica se o endereço tem os campos mínimos exigidos pelo leiaute.
func (e Endereco) Completo() bool {
	return e.Logradouro != "" && e.Numero != "" && e.Bairro != "" &&
		e.CodigoMunicipio != "" && e.Municipio != "" && e.UF != "" && e.CEP != ""
}

// Empresa é o emitente das notas fiscais.
type Empresa struct {
	ID           string
	RazaoSocial  string
	NomeFantasia string
	CNPJ         string // somente dígitos
	IE           string // inscrição estadual, somente dígitos
	Endereco     Endereco
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
