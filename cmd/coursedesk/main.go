package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/efreitasn/coursedesk/internal/config"
	"github.com/efreitasn/coursedesk/internal/enrollment"
	"github.com/efreitasn/coursedesk/internal/handler"
	"github.com/efreitasn/coursedesk/internal/service"
	"github.com/efreitasn/coursedesk/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Instantiate stores.
	batchStore := store.NewBatchStore()
	webhookStore := store.NewWebhookStore()
	notificationStore := store.NewNotificationStore()

	// Webhook service first: it publishes events for everything else.
	webhookSvc := service.NewWebhookService(webhookStore, cfg.WebhookTimeout, logger)
	installmentSvc := service.NewInstallmentService(cfg.CurrencyPlaces, cfg.Tenors)

	// Enrollment closer (depends on webhook service as dispatcher).
	closer := enrollment.NewCloser(cfg.CloseInterval, batchStore, webhookSvc, logger)

	batchSvc := service.NewBatchService(batchStore, installmentSvc, webhookSvc, closer)
	notificationSvc := service.NewNotificationService(notificationStore, batchStore, webhookSvc)

	// Router.
	router := handler.NewRouter(batchSvc, installmentSvc, webhookSvc, notificationSvc, logger)

	// Start the closer with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	closer.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.Int("currency_places", int(cfg.CurrencyPlaces)),
			slog.Any("tenors", cfg.Tenors),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, then cancel context to stop the closer.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
