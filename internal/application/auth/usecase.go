// Package auth cobre registro e login de usuários com JWT.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fiscalbr/nfe-api/internal/application/dto"
	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
	"github.com/fiscalbr/nfe-api/pkg/jwt"
)

// JWTConfig configuração para a geração de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticação: registro e login.
type AuthUseCase struct {
	usuarioRepo repository.UsuarioRepository
	empresaRepo repository.EmpresaRepository
	jwtCfg      JWTConfig
}

// NewAuthUseCase constrói o caso de uso de auth.
func NewAuthUseCase(usuarioRepo repository.UsuarioRepository, empresaRepo repository.EmpresaRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{usuarioRepo: usuarioRepo, empresaRepo: empresaRepo, jwtCfg: jwtCfg}
}

// Registrar cria um usuário: faz o hash bcrypt da senha e persiste.
// Devolve ErrEmailJaCadastrado se o e-mail já existir.
func (uc *AuthUseCase) Registrar(ctx context.Context, in dto.RegistrarUsuarioRequest) (*dto.UsuarioResponse, error) {
	if existente, _ := uc.usuarioRepo.GetByEmail(ctx, in.Email); existente != nil {
		return nil, domain.ErrEmailJaCadastrado
	}
	if _, err := uc.empresaRepo.GetByID(ctx, in.EmpresaID); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Senha), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	nome := in.Nome
	if nome == "" {
		nome = in.Email
	}
	perfil := in.Perfil
	if perfil == "" {
		perfil = entity.PerfilOperador
	}
	now := time.Now()
	usuario := &entity.Usuario{
		ID:        uuid.New().String(),
		EmpresaID: in.EmpresaID,
		Email:     in.Email,
		SenhaHash: string(hash),
		Nome:      nome,
		Perfil:    perfil,
		Ativo:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.usuarioRepo.Create(ctx, usuario); err != nil {
		return nil, err
	}
	return paraUsuarioResponse(usuario), nil
}

// Login verifica e-mail/senha e devolve o token JWT com o usuário.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	usuario, err := uc.usuarioRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, domain.ErrNaoAutorizado
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usuario.SenhaHash), []byte(in.Senha)); err != nil {
		return nil, domain.ErrNaoAutorizado
	}
	if !usuario.Ativo {
		return nil, domain.ErrNaoAutorizado
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, usuario.ID, usuario.EmpresaID, usuario.Perfil, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:   token,
		Usuario: *paraUsuarioResponse(usuario),
	}, nil
}

func paraUsuarioResponse(u *entity.Usuario) *dto.UsuarioResponse {
	if u == nil {
		return nil
	}
	return &dto.UsuarioResponse{
		ID:        u.ID,
		EmpresaID: u.EmpresaID,
		Email:     u.Email,
		Nome:      u.Nome,
		Perfil:    u.Perfil,
		Ativo:     u.Ativo,
		CreatedAt: u.CreatedAt,
	}
}
