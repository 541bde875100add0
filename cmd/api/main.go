package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fiscalgo/emissor-nfe/internal/application/emissao"
	infranfe "github.com/fiscalgo/emissor-nfe/internal/infrastructure/nfe"
	infrapdf "github.com/fiscalgo/emissor-nfe/internal/infrastructure/pdf"
	"github.com/fiscalgo/emissor-nfe/internal/infrastructure/postgres"
	httpRouter "github.com/fiscalgo/emissor-nfe/internal/interfaces/http"
	"github.com/fiscalgo/emissor-nfe/pkg/config"
	"github.com/fiscalgo/emissor-nfe/pkg/logger"
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
		Str("uf", cfg.NFE.UF).
		Str("ambiente", cfg.NFE.Ambiente).
		Bool("contingencia", cfg.NFE.Contingencia).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão com PostgreSQL")
	}
	defer pool.Close()

	notaRepo := postgres.NewNotaRepository(pool)

	builder := infranfe.NewXMLBuilderService()
	resolver := infranfe.NewEndpointResolverService()

	// Assinador/Transmissor ficam nil: fora de development o deploy injeta as
	// implementações (A1/HSM e cliente SOAP) via build próprio.
	emitirUC := emissao.NewEmitirNotaUseCase(
		notaRepo, builder, resolver, nil, nil,
		emissao.Config{
			UF:           cfg.NFE.UF,
			Ambiente:     cfg.NFE.Ambiente,
			Contingencia: cfg.NFE.Contingencia,
			SerieDefault: cfg.NFE.Serie,
			AppEnv:       cfg.App.Env,
		},
		log,
	)

	// DANFE: representação gráfica da nota emitida
	danfeGenerator := infrapdf.NewMarotoDANFEGenerator()
	danfeUC := emissao.NewDANFEUseCase(notaRepo, danfeGenerator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		EmitirNota: emitirUC,
		DANFE:      danfeUC,
		Resolver:   resolver,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("desligamento do servidor")
	}

	// Espera as emissões em voo terminarem o ciclo SEFAZ antes de sair.
	if err := emitirUC.AguardarProcessamentos(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("processamentos assíncronos não concluídos no prazo")
	}

	log.Info().Msg("aplicação encerrada")
}
