package domain

import "errors"

// Erros de domínio (sem dependências externas). A camada HTTP e os use cases
// distinguem cada um para decidir entre reprocessar, corrigir dados ou
// completar a configuração.
var (
	ErrNaoEncontrado            = errors.New("recurso não encontrado")
	ErrValidacao                = errors.New("dados inválidos para a operação fiscal")
	ErrConfiguracaoAusente      = errors.New("empresa sem configuração fiscal")
	ErrCertificadoIndisponivel  = errors.New("nenhum certificado digital válido disponível")
	ErrCertificadoExpirado      = errors.New("certificado digital expirado")
	ErrFalhaAssinatura          = errors.New("falha na assinatura digital do XML")
	ErrElementoAssinavelAusente = errors.New("XML sem elemento assinável (infNFe, infEvento ou infInut)")
	ErrTransporte               = errors.New("falha de comunicação com a SEFAZ")
	ErrRejeitadoSefaz           = errors.New("documento rejeitado pela SEFAZ")
	ErrConflitoEstado           = errors.New("operação incompatível com o status atual da nota")
	ErrNaoAutorizado            = errors.New("não autorizado")
	ErrEmailJaCadastrado        = errors.New("e-mail já cadastrado")
)
