package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnderecoDTO endereço nos cadastros de emitente e destinatário.
type EnderecoDTO struct {
	Logradouro      string `json:"logradouro"`
	Numero          string `json:"numero"`
	Complemento     string `json:"complemento,omitempty"`
	Bairro          string `json:"bairro"`
	CodigoMunicipio string `json:"codigo_municipio"` // tabela IBGE, 7 dígitos
	Municipio       string `json:"municipio"`
	UF              string `json:"uf"`
	CEP             string `json:"cep"`
	Telefone        string `json:"telefone,omitempty"`
}

// CriarEmpresaRequest body para POST /api/empresas.
type CriarEmpresaRequest struct {
	RazaoSocial  string      `json:"razao_social" validate:"required,min=1,max=60"`
	NomeFantasia string      `json:"nome_fantasia,omitempty"`
	CNPJ         string      `json:"cnpj" validate:"required"`
	IE           string      `json:"ie,omitempty"`
	Endereco     EnderecoDTO `json:"endereco"`
	Email        string      `json:"email,omitempty" validate:"omitempty,email"`
}

// EmpresaResponse emitente nas respostas.
type EmpresaResponse struct {
	ID           string      `json:"id"`
	RazaoSocial  string      `json:"razao_social"`
	NomeFantasia string      `json:"nome_fantasia,omitempty"`
	CNPJ         string      `json:"cnpj"`
	IE           string      `json:"ie,omitempty"`
	Endereco     EnderecoDTO `json:"endereco"`
	Email        string      `json:"email,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// CriarDestinatarioRequest body para POST /api/destinatarios.
type CriarDestinatarioRequest struct {
	Nome      string      `json:"nome" validate:"required,min=1,max=60"`
	CPFCNPJ   string      `json:"cpf_cnpj" validate:"required"`
	IE        string      `json:"ie,omitempty"`
	IndIEDest string      `json:"ind_ie_dest,omitempty"` // 1|2|9; padrão 9
	Endereco  EnderecoDTO `json:"endereco"`
	Email     string      `json:"email,omitempty" validate:"omitempty,email"`
}

// DestinatarioResponse destinatário nas respostas.
type DestinatarioResponse struct {
	ID        string      `json:"id"`
	Nome      string      `json:"nome"`
	CPFCNPJ   string      `json:"cpf_cnpj"`
	IE        string      `json:"ie,omitempty"`
	IndIEDest string      `json:"ind_ie_dest"`
	Endereco  EnderecoDTO `json:"endereco"`
	Email     string      `json:"email,omitempty"`
}

// ConfiguracaoFiscalRequest body para PUT /api/empresas/:id/configuracao.
type ConfiguracaoFiscalRequest struct {
	RegimeTributario  string `json:"regime_tributario" validate:"required,oneof=simples presumido real"`
	UFEmissao         string `json:"uf_emissao" validate:"required,len=2"`
	Ambiente          string `json:"ambiente" validate:"required,oneof=1 2"`
	SerieNFe          int    `json:"serie_nfe"`
	ProximoNumeroNFe  int    `json:"proximo_numero_nfe"`
	SerieNFCe         int    `json:"serie_nfce"`
	ProximoNumeroNFCe int    `json:"proximo_numero_nfce"`
	CSCNFCe           string `json:"csc_nfce,omitempty"`
	IDTokenCSC        string `json:"id_token_csc,omitempty"`
}

// ConfiguracaoFiscalResponse configuração nas respostas. A senha do CSC
// nunca volta inteira.
type ConfiguracaoFiscalResponse struct {
	EmpresaID         string `json:"empresa_id"`
	RegimeTributario  string `json:"regime_tributario"`
	UFEmissao         string `json:"uf_emissao"`
	Ambiente          string `json:"ambiente"`
	SerieNFe          int    `json:"serie_nfe"`
	ProximoNumeroNFe  int    `json:"proximo_numero_nfe"`
	SerieNFCe         int    `json:"serie_nfce"`
	ProximoNumeroNFCe int    `json:"proximo_numero_nfce"`
}

// CadastrarCertificadoRequest body para POST /api/empresas/:id/certificados.
// O arquivo .pfx já deve estar no volume do servidor; a API guarda só a
// referência e a senha, nunca o material de chave.
type CadastrarCertificadoRequest struct {
	CaminhoArquivo string `json:"caminho_arquivo" validate:"required"`
	Senha          string `json:"senha"`
}

// CertificadoResponse certificado nas respostas (sem senha).
type CertificadoResponse struct {
	ID             string    `json:"id"`
	EmpresaID      string    `json:"empresa_id"`
	Status         string    `json:"status"` // Válido|Expirando|Expirado
	ValidadeInicio time.Time `json:"validade_inicio"`
	ValidadeFim    time.Time `json:"validade_fim"`
}

// ItemNotaRequest linha da nota em POST /api/notas.
type ItemNotaRequest struct {
	CodigoProduto string          `json:"codigo_produto" validate:"required"`
	Descricao     string          `json:"descricao" validate:"required,min=1,max=120"`
	NCM           string          `json:"ncm" validate:"required"`
	CEST          string          `json:"cest,omitempty"`
	CFOP          string          `json:"cfop" validate:"required,len=4"`
	Origem        string          `json:"origem,omitempty"` // padrão "0" (nacional)
	Unidade       string          `json:"unidade" validate:"required"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	ValorUnitario decimal.Decimal `json:"valor_unitario"`
	ValorDesconto decimal.Decimal `json:"valor_desconto"`
}

// CriarNotaRequest body para POST /api/notas. A nota nasce em Rascunho; a
// numeração só é consumida na emissão.
type CriarNotaRequest struct {
	EmpresaID        string            `json:"empresa_id" validate:"required,uuid"`
	DestinatarioID   string            `json:"destinatario_id,omitempty"` // NFC-e admite consumidor não identificado
	Modelo           string            `json:"modelo" validate:"required,oneof=55 65"`
	NaturezaOperacao string            `json:"natureza_operacao" validate:"required,min=1,max=60"`
	MeioPagamento    string            `json:"meio_pagamento,omitempty"`   // tPag; padrão 01 (dinheiro)
	ModalidadeFrete  string            `json:"modalidade_frete,omitempty"` // modFrete; padrão 9 (sem transporte)
	ValorFrete       decimal.Decimal   `json:"valor_frete"`
	ValorSeguro      decimal.Decimal   `json:"valor_seguro"`
	ValorDesconto    decimal.Decimal   `json:"valor_desconto"`
	InfComplementar  string            `json:"informacoes_complementares,omitempty"`
	Itens            []ItemNotaRequest `json:"itens" validate:"required,min=1,max=990"`
}

// ItemNotaResponse linha da nota com os tributos destacados.
type ItemNotaResponse struct {
	CodigoProduto string          `json:"codigo_produto"`
	Descricao     string          `json:"descricao"`
	NCM           string          `json:"ncm"`
	CFOP          string          `json:"cfop"`
	Unidade       string          `json:"unidade"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	ValorUnitario decimal.Decimal `json:"valor_unitario"`
	ValorTotal    decimal.Decimal `json:"valor_total"`
	ValorICMS     decimal.Decimal `json:"valor_icms"`
	ValorIPI      decimal.Decimal `json:"valor_ipi"`
	ValorPIS      decimal.Decimal `json:"valor_pis"`
	ValorCOFINS   decimal.Decimal `json:"valor_cofins"`
}

// NotaResponse documento fiscal em GET /api/notas/:id.
type NotaResponse struct {
	ID               string             `json:"id"`
	EmpresaID        string             `json:"empresa_id"`
	Modelo           string             `json:"modelo"`
	Serie            int                `json:"serie"`
	Numero           int                `json:"numero"`
	NaturezaOperacao string             `json:"natureza_operacao"`
	DataEmissao      time.Time          `json:"data_emissao"`
	Status           string             `json:"status"`
	ChaveAcesso      string             `json:"chave_acesso,omitempty"`
	Protocolo        string             `json:"protocolo,omitempty"`
	DataAutorizacao  *time.Time         `json:"data_autorizacao,omitempty"`
	MotivoRejeicao   string             `json:"motivo_rejeicao,omitempty"`
	Destinatario     string             `json:"destinatario,omitempty"`
	ValorTotal       decimal.Decimal    `json:"valor_total"`
	ValorICMS        decimal.Decimal    `json:"valor_icms"`
	QRCodeURL        string             `json:"qrcode_url,omitempty"`
	DANFERef         string             `json:"danfe_ref,omitempty"`
	CartasCorrecao   int                `json:"cartas_correcao"`
	Itens            []ItemNotaResponse `json:"itens,omitempty"`
}

// NotaStatusDTO resposta leve para o polling de GET /api/notas/:id/status.
// O cliente consulta até o status sair de Processando.
type NotaStatusDTO struct {
	ID             string `json:"id"`
	Status         string `json:"status"` // Rascunho|Pendente|Processando|Autorizada|Rejeitada|Cancelada
	ChaveAcesso    string `json:"chave_acesso,omitempty"`
	Protocolo      string `json:"protocolo,omitempty"`
	MotivoRejeicao string `json:"motivo_rejeicao,omitempty"`
}

// CancelarNotaRequest body para POST /api/notas/:id/cancelar.
type CancelarNotaRequest struct {
	Justificativa string `json:"justificativa" validate:"required,min=15,max=255"`
}

// CartaCorrecaoRequest body para POST /api/notas/:id/carta-correcao.
type CartaCorrecaoRequest struct {
	Correcao string `json:"correcao" validate:"required,min=15,max=1000"`
}

// InutilizarFaixaRequest body para POST /api/inutilizacoes.
type InutilizarFaixaRequest struct {
	EmpresaID     string `json:"empresa_id" validate:"required,uuid"`
	Modelo        string `json:"modelo" validate:"required,oneof=55 65"`
	Serie         int    `json:"serie" validate:"min=0,max=999"`
	NumeroInicial int    `json:"numero_inicial" validate:"required,min=1"`
	NumeroFinal   int    `json:"numero_final" validate:"required,min=1"`
	Justificativa string `json:"justificativa" validate:"required,min=15,max=255"`
}

// EventoFiscalResponse evento registrado em GET /api/notas/:id/eventos.
type EventoFiscalResponse struct {
	ID         string    `json:"id"`
	Tipo       string    `json:"tipo"`
	Sequencia  int       `json:"sequencia"`
	Descricao  string    `json:"descricao"`
	Protocolo  string    `json:"protocolo,omitempty"`
	CStat      string    `json:"cstat"`
	DataEvento time.Time `json:"data_evento"`
}
