package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
)

var _ repository.DestinatarioRepository = (*DestinatarioRepo)(nil)

// DestinatarioRepo implementação de DestinatarioRepository (usável com pool ou tx).
type DestinatarioRepo struct {
	q Querier
}

// NewDestinatarioRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewDestinatarioRepository(q Querier) *DestinatarioRepo {
	return &DestinatarioRepo{q: q}
}

// Create persiste o destinatário.
func (r *DestinatarioRepo) Create(ctx context.Context, d *entity.Destinatario) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	query := `
		INSERT INTO destinatarios (
			id, nome, cpf_cnpj, ie, ind_ie_dest, email,
			logradouro, numero, complemento, bairro, codigo_municipio, municipio, uf, cep, telefone,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.Nome, d.CPFCNPJ, d.IE, d.IndIEDest, d.Email,
		d.Endereco.Logradouro, d.Endereco.Numero, d.Endereco.Complemento, d.Endereco.Bairro,
		d.Endereco.CodigoMunicipio, d.Endereco.Municipio, d.Endereco.UF, d.Endereco.CEP, d.Endereco.Telefone,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert destinatario: %w", err)
	}
	return nil
}

// GetByID devolve o destinatário ou ErrNaoEncontrado.
func (r *DestinatarioRepo) GetByID(ctx context.Context, id string) (*entity.Destinatario, error) {
	query := `
		SELECT id, nome, cpf_cnpj, COALESCE(ie, ''), COALESCE(ind_ie_dest, ''), COALESCE(email, ''),
		       logradouro, numero, COALESCE(complemento, ''), bairro, codigo_municipio, municipio, uf, cep, COALESCE(telefone, ''),
		       created_at, updated_at
		FROM destinatarios WHERE id = $1`
	var d entity.Destinatario
	err := r.q.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Nome, &d.CPFCNPJ, &d.IE, &d.IndIEDest, &d.Email,
		&d.Endereco.Logradouro, &d.Endereco.Numero, &d.Endereco.Complemento, &d.Endereco.Bairro,
		&d.Endereco.CodigoMunicipio, &d.Endereco.Municipio, &d.Endereco.UF, &d.Endereco.CEP, &d.Endereco.Telefone,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNaoEncontrado
		}
		return nil, fmt.Errorf("get destinatario: %w", err)
	}
	return &d, nil
}
