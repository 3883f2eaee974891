package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dompet/internal/backend"
	"dompet/internal/cli"
	apphttp "dompet/internal/http"
	applog "dompet/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(nil, applog.ComponentApp))
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	app, err := backend.NewApp(context.Background(), bcfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Accounts:   app.Accounts,
		Profiles:   app.Profiles,
		Groups:     app.Groups,
		Invites:    app.Invites,
		Categories: app.Categories,
		Ledger:     app.Ledger,
		Store:      app.Repo,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("Failed to configure HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := app.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting dompet server",
		"port", cfg.Port,
		"public_origin", cfg.PublicOrigin,
		"amqp_enabled", app.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
