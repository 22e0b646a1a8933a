package repository

import (
	"context"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
)

// NotaFiscalRepository define o acesso a notas fiscais e seus itens.
type NotaFiscalRepository interface {
	Create(ctx context.Context, nota *entity.NotaFiscal) error
	GetByID(ctx context.Context, id string) (*entity.NotaFiscal, error)
	GetByChave(ctx context.Context, chave string) (*entity.NotaFiscal, error)
	Update(ctx context.Context, nota *entity.NotaFiscal) error
	// ListPendentesAntigas devolve notas Pendente/Processando paradas há mais
	// tempo que o corte: alvo da varredura de reemissão.
	ListPendentesAntigas(ctx context.Context, corte time.Time) ([]*entity.NotaFiscal, error)
	ListByEmpresa(ctx context.Context, empresaID string, limit int) ([]*entity.NotaFiscal, error)
}

// EventoFiscalRepository registra os eventos imutáveis de cada nota.
type EventoFiscalRepository interface {
	Create(ctx context.Context, evento *entity.EventoFiscal) error
	ListByNota(ctx context.Context, notaFiscalID string) ([]*entity.EventoFiscal, error)
	// CountByTipo conta eventos de um tipo para a nota (cap de cartas de correção).
	CountByTipo(ctx context.Context, notaFiscalID, tipo string) (int, error)
}
