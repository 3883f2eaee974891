package main

import (
	"context"
	"os"
	"time"

	"dompet/internal/backend"
	"dompet/internal/cli"
	applog "dompet/internal/log"
	"dompet/internal/services"
	"dompet/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(nil, applog.ComponentWorker))
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting dompet-worker", "export_backend", cfg.ExportBackend)

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
	export, err := app.ExportService(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", "error", err)
		app.Cleanup()
		os.Exit(1)
	}

	processorCfg := services.DefaultSyncProcessorConfig()
	processorCfg.PollInterval = cfg.SyncInterval
	processorCfg.BatchSize = cfg.SyncBatchSize
	processor := services.NewSyncProcessor(export, app.Invites, processorCfg)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Sync processor stop error", "error", err)
		}
		if err := app.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	if app.AMQP == nil {
		logger.Warn("AMQP unavailable, exporting by polling only", "interval", cfg.SyncInterval)
	} else {
		w := worker.NewSyncWorker(app.AMQP, export, cfg.SyncBatchSize)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
