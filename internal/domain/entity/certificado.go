package entity

import "time"

// Status computado do certificado digital em função da janela de validade.
const (
	CertificadoValido    = "Válido"
	CertificadoExpirando = "Expirando" // vence em menos de 30 dias
	CertificadoExpirado  = "Expirado"
)

// JanelaAvisoExpiracao antecedência do aviso de vencimento.
const JanelaAvisoExpiracao = 30 * 24 * time.Hour

// CertificadoDigital referencia o certificado A1 (.pfx/.p12) do emitente.
// A chave privada nunca sai do arquivo cifrado: a entidade guarda apenas o
// caminho e a senha, e nenhum dos dois aparece em logs.
type CertificadoDigital struct {
	ID             string
	EmpresaID      string
	CaminhoArquivo string
	Senha          string
	ValidadeInicio time.Time
	ValidadeFim    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Status calcula Válido/Expirando/Expirado em relação a agora.
func (c *CertificadoDigital) Status(agora time.Time) string {
	if agora.After(c.ValidadeFim) {
		return CertificadoExpirado
	}
	if c.ValidadeFim.Sub(agora) <= JanelaAvisoExpiracao {
		return CertificadoExpirando
	}
	return CertificadoValido
}

// Vigente indica se o certificado cobre o instante informado.
func (c *CertificadoDigital) Vigente(agora time.Time) bool {
	return !agora.Before(c.ValidadeInicio) && !agora.After(c.ValidadeFim)
}
