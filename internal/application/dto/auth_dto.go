package dto

import "time"

// RegistrarUsuarioRequest body para POST /api/auth/registrar.
type RegistrarUsuarioRequest struct {
	EmpresaID string `json:"empresa_id" validate:"required,uuid"`
	Email     string `json:"email" validate:"required,email"`
	Senha     string `json:"senha" validate:"required,min=8"`
	Nome      string `json:"nome" validate:"omitempty,max=200"`
	Perfil    string `json:"perfil" validate:"omitempty,oneof=admin contador operador"`
}

// UsuarioResponse usuário nas respostas (nunca carrega a senha).
type UsuarioResponse struct {
	ID        string    `json:"id"`
	EmpresaID string    `json:"empresa_id"`
	Email     string    `json:"email"`
	Nome      string    `json:"nome"`
	Perfil    string    `json:"perfil"`
	Ativo     bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest body para POST /api/auth/login.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required"`
}

// LoginResponse token JWT e dados do usuário autenticado.
type LoginResponse struct {
	Token   string          `json:"token"`
	Usuario UsuarioResponse `json:"usuario"`
}
