package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fiscalbr/nfe-api/internal/application/dto"
	"github.com/fiscalbr/nfe-api/internal/application/fiscal"
	"github.com/fiscalbr/nfe-api/internal/domain"
)

// NotaFiscalHandler trata o ciclo de vida das notas fiscais: criação,
// emissão, consulta, cancelamento, carta de correção e inutilização.
type NotaFiscalHandler struct {
	notas    *fiscal.NotasUseCase
	emissao  *fiscal.EmissaoUseCase
	eventos  *fiscal.EventosUseCase
	consulta *fiscal.ConsultaUseCase
}

// NewNotaFiscalHandler constrói o handler injetando os casos de uso.
func NewNotaFiscalHandler(
	notas *fiscal.NotasUseCase,
	emissao *fiscal.EmissaoUseCase,
	eventos *fiscal.EventosUseCase,
	consulta *fiscal.ConsultaUseCase,
) *NotaFiscalHandler {
	return &NotaFiscalHandler{notas: notas, emissao: emissao, eventos: eventos, consulta: consulta}
}

// Criar godoc
// @Summary      Criar nota fiscal em rascunho
// @Description  Calcula os impostos dos itens e grava a nota como rascunho.
// @Description  Nenhum número é consumido até a emissão.
// @Tags         notas
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CriarNotaRequest  true  "Dados da nota"
// @Success      201   {object}  dto.NotaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/notas [post]
func (h *NotaFiscalHandler) Criar(c *fiber.Ctx) error {
	var in dto.CriarNotaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	out, err := h.notas.Criar(c.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidacao):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		case errors.Is(err, domain.ErrNaoEncontrado):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "empresa ou destinatário não encontrado"})
		case errors.Is(err, domain.ErrConfiguracaoAusente):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_FISCAL_CONFIG", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Obter godoc
// @Summary      Obter nota fiscal por ID
// @Tags         notas
// @Produce      json
// @Param        id   path  string  true  "ID da nota"
// @Success      200  {object}  dto.NotaResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notas/{id} [get]
func (h *NotaFiscalHandler) Obter(c *fiber.Ctx) error {
	out, err := h.notas.Obter(c.Context(), c.Params("id"))
	if err != nil {
		return h.erroPadrao(c, err)
	}
	return c.JSON(out)
}

// Listar godoc
// @Summary      Listar notas da empresa
// @Tags         notas
// @Produce      json
// @Param        empresa_id  query  string  true   "ID da empresa"
// @Param        limit       query  int     false  "Limite"  default(50)
// @Success      200  {array}  dto.NotaResponse
// @Router       /api/notas [get]
func (h *NotaFiscalHandler) Listar(c *fiber.Ctx) error {
	empresaID := c.Query("empresa_id")
	if empresaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "empresa_id é obrigatório"})
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out, err := h.notas.Listar(c.Context(), empresaID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// Status godoc
// @Summary      Status resumido da nota (polling)
// @Tags         notas
// @Produce      json
// @Param        id   path  string  true  "ID da nota"
// @Success      200  {object}  dto.NotaStatusDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notas/{id}/status [get]
func (h *NotaFiscalHandler) Status(c *fiber.Ctx) error {
	out, err := h.notas.Status(c.Context(), c.Params("id"))
	if err != nil {
		return h.erroPadrao(c, err)
	}
	return c.JSON(out)
}

// XML godoc
// @Summary      XML protocolado da nota
// @Description  Devolve o procNFe quando autorizada; na falta dele, o XML
// @Description  assinado ainda não protocolado.
// @Tags         notas
// @Produce      xml
// @Param        id   path  string  true  "ID da nota"
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notas/{id}/xml [get]
func (h *NotaFiscalHandler) XML(c *fiber.Ctx) error {
	xml, err := h.notas.XMLProtocolado(c.Context(), c.Params("id"))
	if err != nil {
		return h.erroPadrao(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.Send(xml)
}

// DANFE godoc
// @Summary      Download do DANFE em PDF
// @Tags         notas
// @Produce      application/pdf
// @Param        id   path  string  true  "ID da nota"
// @Success      200  {file}  file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notas/{id}/danfe [get]
func (h *NotaFiscalHandler) DANFE(c *fiber.Ctx) error {
	ref, err := h.notas.DANFERef(c.Context(), c.Params("id"))
	if err != nil {
		return h.erroPadrao(c, err)
	}
	return c.SendFile(ref)
}

// Eventos godoc
// @Summary      Eventos fiscais registrados na nota
// @Tags         notas
// @Produce      json
// @Param        id   path  string  true  "ID da nota"
// @Success      200  {array}  dto.EventoFiscalResponse
// @Router       /api/notas/{id}/eventos [get]
func (h *NotaFiscalHandler) Eventos(c *fiber.Ctx) error {
	eventos, err := h.consulta.Eventos(c.Context(), c.Params("id"))
	if err != nil {
		return h.erroPadrao(c, err)
	}
	out := make([]dto.EventoFiscalResponse, 0, len(eventos))
	for _, e := range eventos {
		out = append(out, dto.EventoFiscalResponse{
			ID:         e.ID,
			Tipo:       e.Tipo,
			Sequencia:  e.Sequencia,
			Descricao:  e.Descricao,
			Protocolo:  e.Protocolo,
			CStat:      e.CStat,
			DataEvento: e.DataEvento,
		})
	}
	return c.JSON(out)
}

// Emitir godoc
// @Summary      Emitir a nota na SEFAZ
// @Description  Por padrão dispara a emissão em background e devolve 202;
// @Description  o cliente acompanha via GET /api/notas/{id}/status. Com
// @Description  ?aguardar=true a requisição bloqueia até o desfecho.
// @Tags         notas
// @Produce      json
// @Param        id        path   string  true   "ID da nota"
// @Param        aguardar  query  bool    false  "Emissão síncrona"
// @Success      200  {object}  fiscal.ResultadoEmissao
// @Success      202  {object}  dto.NotaStatusDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/notas/{id}/emitir [post]
func (h *NotaFiscalHandler) Emitir(c *fiber.Ctx) error {
	id := c.Params("id")
	if c.QueryBool("aguardar", false) {
		resultado, err := h.emissao.Emitir(c.Context(), id)
		if err != nil {
			if resultado != nil {
				// Rejeição ou validação: o desfecho vai no corpo com o
				// status HTTP correspondente.
				return c.Status(statusDeErroEmissao(err)).JSON(resultado)
			}
			return h.erroPadrao(c, err)
		}
		return c.JSON(resultado)
	}

	// Pré-checagem barata antes de aceitar o job: notas em estado não
	// emitível falham aqui com 409 em vez de silenciosamente no background.
	st, err := h.notas.Status(c.Context(), id)
	if err != nil {
		return h.erroPadrao(c, err)
	}
	h.emissao.EmitirAsync(id)
	return c.Status(fiber.StatusAccepted).JSON(st)
}

// Consultar godoc
// @Summary      Consultar situação da nota na SEFAZ
// @Description  Reconcilia o status local com a situação atual do documento
// @Description  na SEFAZ (protocolo, cancelamento ou lote não recebido).
// @Tags         notas
// @Produce      json
// @Param        id   path  string  true  "ID da nota"
// @Success      200  {object}  fiscal.ResultadoEmissao
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notas/{id}/consultar [post]
func (h *NotaFiscalHandler) Consultar(c *fiber.Ctx) error {
	out, err := h.consulta.ConsultarSituacao(c.Context(), c.Params("id"))
	if err != nil {
		return h.erroPadrao(c, err)
	}
	return c.JSON(out)
}

// Cancelar godoc
// @Summary      Cancelar nota autorizada
// @Description  Registra o evento de cancelamento (110111) na SEFAZ. Só é
// @Description  aceito dentro da janela de 24 horas após a autorização.
// @Tags         notas
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID da nota"
// @Param        body  body  dto.CancelarNotaRequest  true  "Justificativa"
// @Success      200   {object}  fiscal.ResultadoEmissao
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/notas/{id}/cancelar [post]
func (h *NotaFiscalHandler) Cancelar(c *fiber.Ctx) error {
	var in dto.CancelarNotaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	out, err := h.eventos.Cancelar(c.Context(), c.Params("id"), in.Justificativa)
	if err != nil {
		return h.erroEvento(c, err)
	}
	return c.JSON(out)
}

// CartaCorrecao godoc
// @Summary      Registrar carta de correção eletrônica
// @Description  Evento 110110. Cada nota aceita no máximo 20 cartas; a mais
// @Description  recente substitui as anteriores.
// @Tags         notas
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID da nota"
// @Param        body  body  dto.CartaCorrecaoRequest  true  "Texto da correção"
// @Success      200   {object}  fiscal.ResultadoEmissao
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/notas/{id}/carta-correcao [post]
func (h *NotaFiscalHandler) CartaCorrecao(c *fiber.Ctx) error {
	var in dto.CartaCorrecaoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	out, err := h.eventos.CartaCorrecao(c.Context(), c.Params("id"), in.Correcao)
	if err != nil {
		return h.erroEvento(c, err)
	}
	return c.JSON(out)
}

// Inutilizar godoc
// @Summary      Inutilizar faixa de numeração
// @Description  Declara à SEFAZ que a faixa de números nunca será usada.
// @Description  A inutilização é terminal.
// @Tags         notas
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InutilizarFaixaRequest  true  "Faixa e justificativa"
// @Success      200   {object}  fiscal.ResultadoEmissao
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inutilizacoes [post]
func (h *NotaFiscalHandler) Inutilizar(c *fiber.Ctx) error {
	var in dto.InutilizarFaixaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	if in.NumeroFinal < in.NumeroInicial {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "numero_final deve ser maior ou igual a numero_inicial"})
	}
	out, err := h.eventos.Inutilizar(c.Context(), in.EmpresaID, in.Modelo, in.Serie, in.NumeroInicial, in.NumeroFinal, in.Justificativa)
	if err != nil {
		return h.erroEvento(c, err)
	}
	return c.JSON(out)
}

// StatusServico godoc
// @Summary      Status do serviço da SEFAZ
// @Tags         sefaz
// @Produce      json
// @Param        modelo  query  string  false  "Modelo do documento (55 ou 65)"  default(55)
// @Success      200  {object}  sefaz.RetornoStatus
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/sefaz/status [get]
func (h *NotaFiscalHandler) StatusServico(c *fiber.Ctx) error {
	modelo := c.Query("modelo", "55")
	out, err := h.consulta.StatusServico(c.Context(), modelo)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SEFAZ_UNAVAILABLE", Message: err.Error()})
	}
	return c.JSON(out)
}

// erroPadrao mapeia os erros de domínio mais comuns para HTTP.
func (h *NotaFiscalHandler) erroPadrao(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNaoEncontrado):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nota fiscal não encontrada"})
	case errors.Is(err, domain.ErrValidacao):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrConflitoEstado):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrTransporte):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SEFAZ_UNAVAILABLE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// erroEvento cobre os desfechos de cancelamento, CCe e inutilização.
func (h *NotaFiscalHandler) erroEvento(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrRejeitadoSefaz):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "SEFAZ_REJECTED", Message: err.Error()})
	case errors.Is(err, domain.ErrCertificadoIndisponivel), errors.Is(err, domain.ErrCertificadoExpirado):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERT_UNAVAILABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrConfiguracaoAusente):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_FISCAL_CONFIG", Message: err.Error()})
	default:
		return h.erroPadrao(c, err)
	}
}

// statusDeErroEmissao escolhe o status HTTP para emissões síncronas que
// terminam com desfecho conhecido no corpo.
func statusDeErroEmissao(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidacao):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrRejeitadoSefaz):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflitoEstado):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
