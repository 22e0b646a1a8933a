package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fiscalbr/nfe-api/internal/application/auth"
	"github.com/fiscalbr/nfe-api/internal/application/fiscal"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	CadastroUC *fiscal.CadastroUseCase
	NotasUC    *fiscal.NotasUseCase
	EmissaoUC  *fiscal.EmissaoUseCase
	EventosUC  *fiscal.EventosUseCase
	ConsultaUC *fiscal.ConsultaUseCase
	JWTSecret  string
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/registrar", authHandler.Registrar)
	authGroup.Post("/login", authHandler.Login)

	// Rotas protegidas (exigem Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Cadastro de emitentes: configuração fiscal e certificados só para
	// admin e contador.
	empresas := protected.Group("/empresas")
	empresaHandler := NewEmpresaHandler(deps.CadastroUC)
	empresas.Post("/", RequirePerfil(entity.PerfilAdmin), empresaHandler.Criar)
	empresas.Get("/", empresaHandler.Listar)
	empresas.Get("/:id", empresaHandler.Obter)
	empresas.Put("/:id/configuracao", RequirePerfil(entity.PerfilAdmin, entity.PerfilContador), empresaHandler.SalvarConfiguracao)
	empresas.Get("/:id/configuracao", empresaHandler.ObterConfiguracao)
	empresas.Post("/:id/certificados", RequirePerfil(entity.PerfilAdmin, entity.PerfilContador), empresaHandler.CadastrarCertificado)
	empresas.Get("/:id/certificados", empresaHandler.ListarCertificados)

	// Destinatários
	destinatarios := protected.Group("/destinatarios")
	destinatarioHandler := NewDestinatarioHandler(deps.CadastroUC)
	destinatarios.Post("/", destinatarioHandler.Criar)
	destinatarios.Get("/:id", destinatarioHandler.Obter)

	// Notas fiscais
	notas := protected.Group("/notas")
	notaHandler := NewNotaFiscalHandler(deps.NotasUC, deps.EmissaoUC, deps.EventosUC, deps.ConsultaUC)
	notas.Post("/", notaHandler.Criar)
	notas.Get("/", notaHandler.Listar)
	notas.Get("/:id", notaHandler.Obter)
	notas.Get("/:id/status", notaHandler.Status)
	notas.Get("/:id/xml", notaHandler.XML)
	notas.Get("/:id/danfe", notaHandler.DANFE)
	notas.Get("/:id/eventos", notaHandler.Eventos)
	notas.Post("/:id/emitir", notaHandler.Emitir)
	notas.Post("/:id/consultar", notaHandler.Consultar)
	notas.Post("/:id/cancelar", RequirePerfil(entity.PerfilAdmin, entity.PerfilContador), notaHandler.Cancelar)
	notas.Post("/:id/carta-correcao", RequirePerfil(entity.PerfilAdmin, entity.PerfilContador), notaHandler.CartaCorrecao)

	// Inutilização de faixa (terminal: só admin e contador)
	protected.Post("/inutilizacoes", RequirePerfil(entity.PerfilAdmin, entity.PerfilContador), notaHandler.Inutilizar)

	// Status do serviço da SEFAZ
	protected.Get("/sefaz/status", notaHandler.StatusServico)
}
