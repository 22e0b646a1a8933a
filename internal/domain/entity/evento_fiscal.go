package entity

import "time"

// Tipos de evento fiscal (tpEvento do leiaute de eventos).
const (
	EventoCancelamento  = "110111"
	EventoCartaCorrecao = "110110"
	EventoInutilizacao  = "inutilizacao" // infInut não é evento do leiaute, mas é registrado aqui
)

// Limites da descrição/justificativa exigidos pelo leiaute.
const (
	DescricaoEventoMin = 15
	DescricaoEventoMax = 1000
)

// EventoFiscal é o registro imutável de cancelamento, carta de correção ou
// inutilização vinculado a uma nota. A sequência é crescente e sem lacunas
// por nota (cartas de correção: 1..20).
type EventoFiscal struct {
	ID           string
	NotaFiscalID string
	Tipo         string
	Sequencia    int
	Descricao    string
	Protocolo    string
	CStat        string
	XMLEvento    string
	DataEvento   time.Time
	CreatedAt    time.Time
}
