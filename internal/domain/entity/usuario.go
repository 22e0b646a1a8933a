package entity

import "time"

// Perfis de acesso do usuário.
const (
	PerfilAdmin    = "admin"
	PerfilContador = "contador"
	PerfilOperador = "operador"
)

// Usuario é um operador do sistema, vinculado a uma empresa emitente.
type Usuario struct {
	ID        string
	EmpresaID string
	Email     string
	SenhaHash string // bcrypt; a senha em claro nunca passa do use case
	Nome      string
	Perfil    string // admin, contador, operador
	Ativo     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
