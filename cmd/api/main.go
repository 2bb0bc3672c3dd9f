package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/scinventory/internal/application/catalog"
	"github.com/jhoicas/scinventory/internal/application/liveview"
	"github.com/jhoicas/scinventory/internal/application/media"
	"github.com/jhoicas/scinventory/internal/application/report"
	"github.com/jhoicas/scinventory/internal/application/scan"
	"github.com/jhoicas/scinventory/internal/domain/barcode"
	"github.com/jhoicas/scinventory/internal/infrastructure/barcodeimg"
	"github.com/jhoicas/scinventory/internal/infrastructure/blob"
	"github.com/jhoicas/scinventory/internal/infrastructure/imaging"
	infrapdf "github.com/jhoicas/scinventory/internal/infrastructure/pdf"
	"github.com/jhoicas/scinventory/internal/infrastructure/store"
	httpRouter "github.com/jhoicas/scinventory/internal/interfaces/http"
	"github.com/jhoicas/scinventory/pkg/config"
	"github.com/jhoicas/scinventory/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Backend).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, log.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer st.Close()

	projector := liveview.NewProjector(st.Items, st.Feed, log.Component("liveview"))
	if err := projector.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("iniciar proyector")
	}
	defer projector.Stop()

	generator := barcode.NewGenerator(st.Registry, cfg.Barcode.MaxAttempts)
	catalogUC := catalog.NewUseCase(st.Items, generator, projector, log.Zerolog())
	scanEngine := scan.NewEngine(st.Items, projector, scan.Config{
		Timeout:     cfg.Scan.Timeout,
		MaxAttempts: cfg.Scan.MaxAttempts,
	}, log.Zerolog())
	reportUC := report.NewUseCase(projector, infrapdf.NewMarotoReportGenerator())

	blobStore, err := blob.NewLocalStorage(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de fotos")
	}
	mediaUC := media.NewUseCase(blobStore, imaging.Processor{}, log.Zerolog())

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// Sin WriteTimeout: /api/live mantiene la respuesta abierta.
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "SC Inventory API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  cfg.App.Name,
			"snapshot": projector.Current().Version,
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CatalogUC:  catalogUC,
		ScanEngine: scanEngine,
		Projector:  projector,
		MediaUC:    mediaUC,
		ReportUC:   reportUC,
		Barcodes:   barcodeimg.NewRenderer(),
		MediaDir:   blobStore.Dir(),
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
		Logger:     log.Component("http"),
	})
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: la API no exige autenticación")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			return fmt.Errorf("servidor HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")

		// Detener el proyector cierra los streams SSE abiertos.
		projector.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
