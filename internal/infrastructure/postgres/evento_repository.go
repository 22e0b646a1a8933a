package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
)

var _ repository.EventoFiscalRepository = (*EventoFiscalRepo)(nil)

// EventoFiscalRepo implementação de EventoFiscalRepository. Eventos são
// imutáveis: só existe INSERT e leitura.
type EventoFiscalRepo struct {
	q Querier
}

// NewEventoFiscalRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewEventoFiscalRepository(q Querier) *EventoFiscalRepo {
	return &EventoFiscalRepo{q: q}
}

// Create registra o evento homologado.
func (r *EventoFiscalRepo) Create(ctx context.Context, evento *entity.EventoFiscal) error {
	if evento.ID == "" {
		evento.ID = uuid.New().String()
	}
	query := `
		INSERT INTO eventos_fiscais (
			id, nota_fiscal_id, tipo, sequencia, descricao,
			protocolo, cstat, xml_evento, data_evento, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	// nota_fiscal_id nulo: inutilização de faixa não referencia nota alguma.
	_, err := r.q.Exec(ctx, query,
		evento.ID, nullIfEmpty(evento.NotaFiscalID), evento.Tipo, evento.Sequencia, evento.Descricao,
		nullIfEmpty(evento.Protocolo), evento.CStat, nullIfEmpty(evento.XMLEvento),
		evento.DataEvento, evento.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evento fiscal: %w", err)
	}
	return nil
}

// ListByNota lista os eventos da nota em ordem cronológica.
func (r *EventoFiscalRepo) ListByNota(ctx context.Context, notaFiscalID string) ([]*entity.EventoFiscal, error) {
	query := `
		SELECT id, nota_fiscal_id, tipo, sequencia, descricao,
		       COALESCE(protocolo, ''), cstat, COALESCE(xml_evento, ''), data_evento, created_at
		FROM eventos_fiscais
		WHERE nota_fiscal_id = $1
		ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, notaFiscalID)
	if err != nil {
		return nil, fmt.Errorf("listar eventos: %w", err)
	}
	defer rows.Close()

	var eventos []*entity.EventoFiscal
	for rows.Next() {
		var e entity.EventoFiscal
		if err := rows.Scan(
			&e.ID, &e.NotaFiscalID, &e.Tipo, &e.Sequencia, &e.Descricao,
			&e.Protocolo, &e.CStat, &e.XMLEvento, &e.DataEvento, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan evento: %w", err)
		}
		eventos = append(eventos, &e)
	}
	return eventos, rows.Err()
}

// CountByTipo conta os eventos de um tipo para a nota (controle do limite de
// cartas de correção).
func (r *EventoFiscalRepo) CountByTipo(ctx context.Context, notaFiscalID, tipo string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM eventos_fiscais WHERE nota_fiscal_id = $1 AND tipo = $2`,
		notaFiscalID, tipo,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("contar eventos: %w", err)
	}
	return count, nil
}
