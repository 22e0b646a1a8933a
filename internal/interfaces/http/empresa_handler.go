package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fiscalbr/nfe-api/internal/application/dto"
	"github.com/fiscalbr/nfe-api/internal/application/fiscal"
	"github.com/fiscalbr/nfe-api/internal/domain"
)

// EmpresaHandler trata o cadastro de emitentes: empresa, configuração
// fiscal e certificados digitais.
type EmpresaHandler struct {
	uc *fiscal.CadastroUseCase
}

// NewEmpresaHandler constrói o handler injetando o caso de uso.
func NewEmpresaHandler(uc *fiscal.CadastroUseCase) *EmpresaHandler {
	return &EmpresaHandler{uc: uc}
}

// Criar godoc
// @Summary      Cadastrar empresa emitente
// @Tags         empresas
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CriarEmpresaRequest  true  "Dados da empresa"
// @Success      201   {object}  dto.EmpresaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/empresas [post]
func (h *EmpresaHandler) Criar(c *fiber.Ctx) error {
	var in dto.CriarEmpresaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	out, err := h.uc.CriarEmpresa(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrValidacao) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Obter godoc
// @Summary      Obter empresa por ID
// @Tags         empresas
// @Produce      json
// @Param        id   path  string  true  "ID da empresa"
// @Success      200  {object}  dto.EmpresaResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/empresas/{id} [get]
func (h *EmpresaHandler) Obter(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.uc.ObterEmpresa(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNaoEncontrado) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "empresa não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// Listar godoc
// @Summary      Listar empresas
// @Tags         empresas
// @Produce      json
// @Success      200  {array}  dto.EmpresaResponse
// @Router       /api/empresas [get]
func (h *EmpresaHandler) Listar(c *fiber.Ctx) error {
	out, err := h.uc.ListarEmpresas(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// SalvarConfiguracao godoc
// @Summary      Salvar configuração fiscal da empresa
// @Tags         empresas
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID da empresa"
// @Param        body  body  dto.ConfiguracaoFiscalRequest  true  "Configuração fiscal"
// @Success      200   {object}  dto.ConfiguracaoFiscalResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/empresas/{id}/configuracao [put]
func (h *EmpresaHandler) SalvarConfiguracao(c *fiber.Ctx) error {
	var in dto.ConfiguracaoFiscalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	out, err := h.uc.SalvarConfiguracao(c.Context(), c.Params("id"), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidacao):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		case errors.Is(err, domain.ErrNaoEncontrado):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "empresa não encontrada"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(out)
}

// ObterConfiguracao godoc
// @Summary      Obter configuração fiscal da empresa
// @Tags         empresas
// @Produce      json
// @Param        id   path  string  true  "ID da empresa"
// @Success      200  {object}  dto.ConfiguracaoFiscalResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/empresas/{id}/configuracao [get]
func (h *EmpresaHandler) ObterConfiguracao(c *fiber.Ctx) error {
	out, err := h.uc.ObterConfiguracao(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNaoEncontrado) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "configuração fiscal não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// CadastrarCertificado godoc
// @Summary      Cadastrar certificado digital A1
// @Description  Registra a referência ao arquivo do certificado. A chave
// @Description  privada nunca é devolvida pela API.
// @Tags         empresas
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID da empresa"
// @Param        body  body  dto.CadastrarCertificadoRequest  true  "Certificado"
// @Success      201   {object}  dto.CertificadoResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/empresas/{id}/certificados [post]
func (h *EmpresaHandler) CadastrarCertificado(c *fiber.Ctx) error {
	var in dto.CadastrarCertificadoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	out, err := h.uc.CadastrarCertificado(c.Context(), c.Params("id"), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCertificadoExpirado):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERT_EXPIRED", Message: err.Error()})
		case errors.Is(err, domain.ErrCertificadoIndisponivel):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERT_INVALID", Message: err.Error()})
		case errors.Is(err, domain.ErrNaoEncontrado):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "empresa não encontrada"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListarCertificados godoc
// @Summary      Listar certificados da empresa
// @Tags         empresas
// @Produce      json
// @Param        id   path  string  true  "ID da empresa"
// @Success      200  {array}  dto.CertificadoResponse
// @Router       /api/empresas/{id}/certificados [get]
func (h *EmpresaHandler) ListarCertificados(c *fiber.Ctx) error {
	out, err := h.uc.ListarCertificados(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}
