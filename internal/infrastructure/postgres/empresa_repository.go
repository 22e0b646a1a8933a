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

var _ repository.EmpresaRepository = (*EmpresaRepo)(nil)

// EmpresaRepo implementação de EmpresaRepository (usável com pool ou tx).
type EmpresaRepo struct {
	q Querier
}

// NewEmpresaRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewEmpresaRepository(q Querier) *EmpresaRepo {
	return &EmpresaRepo{q: q}
}

// Create persiste o emitente.
func (r *EmpresaRepo) Create(ctx context.Context, e *entity.Empresa) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO empresas (
			id, razao_social, nome_fantasia, cnpj, ie, email,
			logradouro, numero, complemento, bairro, codigo_municipio, municipio, uf, cep, telefone,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.RazaoSocial, e.NomeFantasia, e.CNPJ, e.IE, e.Email,
		e.Endereco.Logradouro, e.Endereco.Numero, e.Endereco.Complemento, e.Endereco.Bairro,
		e.Endereco.CodigoMunicipio, e.Endereco.Municipio, e.Endereco.UF, e.Endereco.CEP, e.Endereco.Telefone,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: CNPJ já cadastrado", domain.ErrConflitoEstado)
		}
		return fmt.Errorf("insert empresa: %w", err)
	}
	return nil
}

const colunasEmpresa = `
	id, razao_social, COALESCE(nome_fantasia, ''), cnpj, ie, COALESCE(email, ''),
	logradouro, numero, COALESCE(complemento, ''), bairro, codigo_municipio, municipio, uf, cep, COALESCE(telefone, ''),
	created_at, updated_at`

func scanEmpresa(row pgx.Row) (*entity.Empresa, error) {
	var e entity.Empresa
	err := row.Scan(
		&e.ID, &e.RazaoSocial, &e.NomeFantasia, &e.CNPJ, &e.IE, &e.Email,
		&e.Endereco.Logradouro, &e.Endereco.Numero, &e.Endereco.Complemento, &e.Endereco.Bairro,
		&e.Endereco.CodigoMunicipio, &e.Endereco.Municipio, &e.Endereco.UF, &e.Endereco.CEP, &e.Endereco.Telefone,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByID devolve a empresa ou ErrNaoEncontrado.
func (r *EmpresaRepo) GetByID(ctx context.Context, id string) (*entity.Empresa, error) {
	row := r.q.QueryRow(ctx, `SELECT `+colunasEmpresa+` FROM empresas WHERE id = $1`, id)
	e, err := scanEmpresa(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNaoEncontrado
		}
		return nil, fmt.Errorf("get empresa: %w", err)
	}
	return e, nil
}

// List devolve todas as empresas cadastradas.
func (r *EmpresaRepo) List(ctx context.Context) ([]*entity.Empresa, error) {
	rows, err := r.q.Query(ctx, `SELECT `+colunasEmpresa+` FROM empresas ORDER BY razao_social`)
	if err != nil {
		return nil, fmt.Errorf("listar empresas: %w", err)
	}
	defer rows.Close()

	var empresas []*entity.Empresa
	for rows.Next() {
		e, err := scanEmpresa(rows)
		if err != nil {
			return nil, fmt.Errorf("scan empresa: %w", err)
		}
		empresas = append(empresas, e)
	}
	return empresas, rows.Err()
}
