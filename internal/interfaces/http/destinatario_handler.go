package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fiscalbr/nfe-api/internal/application/dto"
	"github.com/fiscalbr/nfe-api/internal/application/fiscal"
	"github.com/fiscalbr/nfe-api/internal/domain"
)

// DestinatarioHandler trata o cadastro de destinatários.
type DestinatarioHandler struct {
	uc *fiscal.CadastroUseCase
}

func NewDestinatarioHandler(uc *fiscal.CadastroUseCase) *DestinatarioHandler {
	return &DestinatarioHandler{uc: uc}
}

// Criar godoc
// @Summary      Cadastrar destinatário
// @Tags         destinatarios
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CriarDestinatarioRequest  true  "Dados do destinatário"
// @Success      201   {object}  dto.DestinatarioResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/destinatarios [post]
func (h *DestinatarioHandler) Criar(c *fiber.Ctx) error {
	var in dto.CriarDestinatarioRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	out, err := h.uc.CriarDestinatario(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrValidacao) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Obter godoc
// @Summary      Obter destinatário por ID
// @Tags         destinatarios
// @Produce      json
// @Param        id   path  string  true  "ID do destinatário"
// @Success      200  {object}  dto.DestinatarioResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/destinatarios/{id} [get]
func (h *DestinatarioHandler) Obter(c *fiber.Ctx) error {
	out, err := h.uc.ObterDestinatario(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNaoEncontrado) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "destinatário não encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}
