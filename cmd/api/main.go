package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/fiscalbr/nfe-api/docs"
	"github.com/fiscalbr/nfe-api/internal/application/auth"
	"github.com/fiscalbr/nfe-api/internal/application/fiscal"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	infrapdf "github.com/fiscalbr/nfe-api/internal/infrastructure/pdf"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/postgres"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz/signer"
	httpRouter "github.com/fiscalbr/nfe-api/internal/interfaces/http"
	"github.com/fiscalbr/nfe-api/pkg/config"
	"github.com/fiscalbr/nfe-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("uf", cfg.SEFAZ.UF).
		Str("ambiente", cfg.SEFAZ.Ambiente).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	empresaRepo := postgres.NewEmpresaRepository(pool)
	destRepo := postgres.NewDestinatarioRepository(pool)
	configRepo := postgres.NewConfiguracaoFiscalRepository(pool)
	certRepo := postgres.NewCertificadoRepository(pool)
	notaRepo := postgres.NewNotaFiscalRepository(pool)
	eventoRepo := postgres.NewEventoFiscalRepository(pool)
	usuarioRepo := postgres.NewUsuarioRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Serviços de domínio
	chaveCalc := nfe.NewChaveCalculatorService()
	calculadora := nfe.NewCalculadoraImpostos(nfe.NewTabelaAliquotas())

	// Infra SEFAZ
	xmlBuilder := sefaz.NewXMLBuilderService()
	qrcodeSvc := sefaz.NewQRCodeService()
	eventoBuilder := sefaz.NewEventoBuilderService()
	assinador := signer.NewDigitalSignatureService()

	// Identidade mTLS padrão do transporte, usada apenas nas chamadas sem
	// emitente (status do serviço): as transmissões de documentos e eventos
	// saem com o certificado A1 da própria empresa, por chamada.
	certTransporte, err := carregarCertTransporte(cfg.SEFAZ)
	if err != nil {
		log.Fatal().Err(err).Msg("certificado de transporte")
	}
	soapClient := sefaz.NewSOAPClient(
		certTransporte,
		time.Duration(cfg.SEFAZ.TimeoutSeconds)*time.Second,
		log.Zerolog(),
	)
	transmissor := sefaz.NewTransmissorSEFAZ(soapClient, cfg.SEFAZ.UF, cfg.SEFAZ.Ambiente, log.Zerolog())

	// DANFE em PDF
	danfeGen := infrapdf.NewDANFEGenerator("./danfe")

	// Casos de uso
	cadastroUC := fiscal.NewCadastroUseCase(empresaRepo, destRepo, configRepo, certRepo)
	notasUC := fiscal.NewNotasUseCase(notaRepo, empresaRepo, destRepo, configRepo, calculadora)
	emissaoUC := fiscal.NewEmissaoUseCase(
		notaRepo, configRepo, certRepo, txRunner,
		chaveCalc, calculadora, xmlBuilder, qrcodeSvc, eventoBuilder,
		assinador, transmissor, danfeGen, cfg.SEFAZ.VersaoProc,
	)
	eventosUC := fiscal.NewEventosUseCase(
		notaRepo, eventoRepo, configRepo, certRepo, empresaRepo, txRunner,
		eventoBuilder, assinador, transmissor,
	)
	consultaUC := fiscal.NewConsultaUseCase(notaRepo, eventoRepo, certRepo, transmissor)
	authUC := auth.NewAuthUseCase(usuarioRepo, empresaRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Tarefas em background: varredura de notas presas em Processando e
	// alerta de certificados próximos do vencimento.
	tarefasCtx, cancelTarefas := context.WithCancel(ctx)
	defer cancelTarefas()
	tarefas := fiscal.NewServicoTarefas(notaRepo, certRepo, empresaRepo, consultaUC, log)
	tarefas.Iniciar(tarefasCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "NFe API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		CadastroUC: cadastroUC,
		NotasUC:    notasUC,
		EmissaoUC:  emissaoUC,
		EventosUC:  eventosUC,
		ConsultaUC: consultaUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")
	cancelTarefas()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("desligamento do servidor")
	}

	log.Info().Msg("aplicação encerrada")
}

// carregarCertTransporte carrega a identidade mTLS padrão do cliente SOAP
// (as transmissões usam o certificado da empresa emitente). A senha nunca é
// logada.
func carregarCertTransporte(cfg config.SEFAZConfig) (tls.Certificate, error) {
	if cfg.CertPath == "" {
		return tls.Certificate{}, nil
	}
	if strings.HasSuffix(cfg.CertPath, ".p12") || strings.HasSuffix(cfg.CertPath, ".pfx") {
		return signer.LoadFromP12(cfg.CertPath, cfg.CertPassword)
	}
	keyPath := cfg.CertKeyPath
	if keyPath == "" {
		keyPath = strings.TrimSuffix(cfg.CertPath, ".pem") + ".key"
	}
	return signer.LoadFromPEM(cfg.CertPath, keyPath)
}
