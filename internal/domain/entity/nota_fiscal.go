package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Modelos de documento fiscal.
const (
	ModeloNFe  = "55" // Nota Fiscal Eletrônica
	ModeloNFCe = "65" // Nota Fiscal de Consumidor Eletrônica
)

// Status do ciclo de vida da nota fiscal.
const (
	StatusRascunho    = "Rascunho"    // Criada, número ainda não consumido
	StatusPendente    = "Pendente"    // Pronta para emissão
	StatusProcessando = "Processando" // Emissão em curso (nunca terminal)
	StatusAutorizada  = "Autorizada"  // Autorizada pela SEFAZ (cStat 100/150 ou duplicidade)
	StatusRejeitada   = "Rejeitada"   // Rejeitada; pode ser corrigida e reemitida
	StatusCancelada   = "Cancelada"   // Cancelamento homologado (evento 110111)
	StatusInutilizada = "Inutilizada" // Faixa de numeração inutilizada (terminal desde a criação)
)

// JanelaCancelamento é o prazo legal para cancelar após a autorização.
const JanelaCancelamento = 24 * time.Hour

// MaxCartasCorrecao é o limite de cartas de correção por nota.
const MaxCartasCorrecao = 20

// ItemNotaFiscal é uma linha da nota com os valores tributários destacados.
type ItemNotaFiscal struct {
	ID            string
	NotaFiscalID  string
	CodigoProduto string
	Descricao     string
	NCM           string
	CEST          string
	CFOP          string
	Origem        string // origem da mercadoria (0 = nacional)
	Unidade       string
	Quantidade    decimal.Decimal
	ValorUnitario decimal.Decimal
	ValorTotal    decimal.Decimal
	ValorDesconto decimal.Decimal

	CSTICMS        string
	BaseICMS       decimal.Decimal
	AliquotaICMS   decimal.Decimal
	ValorICMS      decimal.Decimal
	CSTIPI         string
	BaseIPI        decimal.Decimal
	AliquotaIPI    decimal.Decimal
	ValorIPI       decimal.Decimal
	CSTPIS         string
	BasePIS        decimal.Decimal
	AliquotaPIS    decimal.Decimal
	ValorPIS       decimal.Decimal
	CSTCOFINS      string
	BaseCOFINS     decimal.Decimal
	AliquotaCOFINS decimal.Decimal
	ValorCOFINS    decimal.Decimal
}

// NotaFiscal é o documento fiscal (NFe modelo 55 ou NFCe modelo 65).
// Os dados de emitente e destinatário são snapshots copiados na criação:
// a legislação exige que o documento reflita o estado no momento da emissão.
type NotaFiscal struct {
	ID               string
	EmpresaID        string
	DestinatarioID   string
	Modelo           string
	Serie            int
	Numero           int
	NaturezaOperacao string
	DataEmissao      time.Time
	Status           string
	ChaveAcesso      string // 44 dígitos; imutável depois de gerada

	Emitente     Empresa      // snapshot
	Destinatario Destinatario // snapshot
	Itens        []ItemNotaFiscal

	ValorProdutos decimal.Decimal
	ValorDesconto decimal.Decimal
	ValorFrete    decimal.Decimal
	ValorSeguro   decimal.Decimal
	ValorOutros   decimal.Decimal
	ValorICMS     decimal.Decimal
	ValorIPI      decimal.Decimal
	ValorPIS      decimal.Decimal
	ValorCOFINS   decimal.Decimal
	ValorTotal    decimal.Decimal

	ModalidadeFrete string // modFrete; "9" quando não há transporte
	MeioPagamento   string // tPag do detPag

	InformacoesComplementares string
	InformacoesFisco          string

	Protocolo       string
	DataAutorizacao *time.Time
	MotivoRejeicao  string

	XMLGerado      string // XML montado, sem assinatura
	XMLAssinado    string // XML com ds:Signature
	XMLProtocolado string // procNFe (XML + protNFe da SEFAZ)
	QRCodeURL      string // NFCe: conteúdo do qrCode
	DANFERef       string // referência do PDF gerado

	CartasCorrecao int // sequência corrente de CCe (máx. 20)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmitivelDe indica se a nota pode iniciar emissão a partir do status atual.
func (n *NotaFiscal) EmitivelDe() bool {
	switch n.Status {
	case StatusRascunho, StatusPendente, StatusRejeitada, StatusProcessando:
		return true
	}
	return false
}

// DentroJanelaCancelamento verifica o prazo de 24h contado da autorização.
func (n *NotaFiscal) DentroJanelaCancelamento(agora time.Time) bool {
	if n.DataAutorizacao == nil {
		return false
	}
	return agora.Sub(*n.DataAutorizacao) <= JanelaCancelamento
}
