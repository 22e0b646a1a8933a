package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
)

var _ repository.UsuarioRepository = (*UsuarioRepo)(nil)

// UsuarioRepo implementação de UsuarioRepository sobre PostgreSQL.
type UsuarioRepo struct {
	q Querier
}

// NewUsuarioRepository constrói o adaptador de usuários.
func NewUsuarioRepository(q Querier) *UsuarioRepo {
	return &UsuarioRepo{q: q}
}

const colunasUsuario = `id, empresa_id, email, senha_hash, nome, perfil, ativo, created_at, updated_at`

// Create persiste o usuário. E-mail é único no sistema.
func (r *UsuarioRepo) Create(ctx context.Context, u *entity.Usuario) error {
	query := `
		INSERT INTO usuarios (` + colunasUsuario + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.EmpresaID, u.Email, u.SenhaHash, u.Nome, u.Perfil, u.Ativo,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailJaCadastrado
		}
		return fmt.Errorf("insert usuário: %w", err)
	}
	return nil
}

// GetByID busca o usuário pelo ID.
func (r *UsuarioRepo) GetByID(ctx context.Context, id string) (*entity.Usuario, error) {
	return r.buscar(ctx, `SELECT `+colunasUsuario+` FROM usuarios WHERE id = $1`, id)
}

// GetByEmail busca o usuário pelo e-mail.
func (r *UsuarioRepo) GetByEmail(ctx context.Context, email string) (*entity.Usuario, error) {
	return r.buscar(ctx, `SELECT `+colunasUsuario+` FROM usuarios WHERE email = $1`, email)
}

// ListByEmpresa lista os usuários da empresa.
func (r *UsuarioRepo) ListByEmpresa(ctx context.Context, empresaID string) ([]*entity.Usuario, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+colunasUsuario+` FROM usuarios WHERE empresa_id = $1 ORDER BY nome`, empresaID)
	if err != nil {
		return nil, fmt.Errorf("listar usuários: %w", err)
	}
	defer rows.Close()

	var usuarios []*entity.Usuario
	for rows.Next() {
		var u entity.Usuario
		if err := rows.Scan(
			&u.ID, &u.EmpresaID, &u.Email, &u.SenhaHash, &u.Nome, &u.Perfil, &u.Ativo,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan usuário: %w", err)
		}
		usuarios = append(usuarios, &u)
	}
	return usuarios, rows.Err()
}

func (r *UsuarioRepo) buscar(ctx context.Context, query string, arg any) (*entity.Usuario, error) {
	var u entity.Usuario
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.EmpresaID, &u.Email, &u.SenhaHash, &u.Nome, &u.Perfil, &u.Ativo,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNaoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("buscar usuário: %w", err)
	}
	return &u, nil
}
