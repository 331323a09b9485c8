package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"pdfapi/docs"
	"pdfapi/internal/config"
	"pdfapi/internal/database"
	handlers "pdfapi/internal/http/handler"
	"pdfapi/internal/http/middleware"
	"pdfapi/internal/logging"
	"pdfapi/internal/otel"
	"pdfapi/internal/pdf"
	"pdfapi/internal/repository"
	"pdfapi/internal/service"
	"pdfapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title PDF API
// @version 1.0
// @description Upload, retrieve and page-extract PDF documents.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *logrus.Logger) error {
	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	store, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// The object index is optional; without DB_HOST each filename is its own storage key.
	var (
		pinger handlers.Pinger
		repo   = repository.NewDirect()
	)
	if cfg.Database.Enabled() {
		idx, err := database.OpenIndex(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer idx.Close()

		repo = idx.Documents
		pinger = idx.DB
	}

	svc := service.NewPDFService(store, repo, pdf.NewPDFCPU(cfg.PDF), service.Options{
		MaxSelectedPages: cfg.PDF.MaxSelectedPages,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.MaxUploadBytes,
		DisableStartupMessage: true,
	})

	// RequestID runs first so every later middleware and handler can read it.
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(logger))
	app.Use(metrics.Handler())

	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.RegisterRoutes(app, pinger, svc, logger)

	app.Get("/swagger/*", handlers.SwaggerUI(docs.SwaggerInfo, cfg.AppHost))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.WithFields(logrus.Fields{
			"addr":           addr,
			"storage_driver": cfg.Storage.Driver,
			"object_index":   cfg.Database.Enabled(),
		}).Info("server listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(shutdownTimeout)
}

func newStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverLocal:
		return storage.NewLocal(cfg.Storage.LocalDir)
	case config.StorageDriverMinIO:
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
