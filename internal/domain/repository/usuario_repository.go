package repository

import (
	"context"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
)

// UsuarioRepository define a persistência de usuários.
type UsuarioRepository interface {
	Create(ctx context.Context, usuario *entity.Usuario) error
	GetByID(ctx context.Context, id string) (*entity.Usuario, error)
	GetByEmail(ctx context.Context, email string) (*entity.Usuario, error)
	ListByEmpresa(ctx context.Context, empresaID string) ([]*entity.Usuario, error)
}
