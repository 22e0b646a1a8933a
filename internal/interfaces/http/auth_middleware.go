package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fiscalbr/nfe-api/internal/application/dto"
	"github.com/fiscalbr/nfe-api/pkg/jwt"
)

// Chaves dos Locals preenchidos pelo middleware de auth.
const (
	LocalUsuarioID = "usuario_id"
	LocalEmpresaID = "empresa_id"
	LocalPerfil    = "perfil"
)

// AuthMiddleware valida o Bearer Token e injeta usuário/empresa/perfil nos Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "header Authorization obrigatório"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vazio"})
		}
		usuarioID, empresaID, perfil, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido ou expirado"})
		}
		c.Locals(LocalUsuarioID, usuarioID)
		c.Locals(LocalEmpresaID, empresaID)
		c.Locals(LocalPerfil, perfil)
		return c.Next()
	}
}

// RequirePerfil autoriza apenas os perfis informados. Token sem perfil é
// tratado como não autenticado (401); perfil fora da lista é 403.
func RequirePerfil(perfis ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		perfil := GetPerfil(c)
		if perfil == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_PERFIL", Message: "token sem perfil de acesso"})
		}
		for _, p := range perfis {
			if p == perfil {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "perfil sem acesso a este recurso"})
	}
}

// GetUsuarioID devolve o usuário autenticado (depois do middleware).
func GetUsuarioID(c *fiber.Ctx) string {
	return localString(c, LocalUsuarioID)
}

// GetEmpresaID devolve a empresa do usuário autenticado.
func GetEmpresaID(c *fiber.Ctx) string {
	return localString(c, LocalEmpresaID)
}

// GetPerfil devolve o perfil carregado no token.
func GetPerfil(c *fiber.Ctx) string {
	return localString(c, LocalPerfil)
}

func localString(c *fiber.Ctx, chave string) string {
	v := c.Locals(chave)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
