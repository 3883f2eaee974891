package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/services"
	"dompet/internal/sheets"
	gsheet "dompet/internal/sheets/google"
	"dompet/internal/sheets/memory"
	"dompet/internal/storage"
)

// NewApp opens the database, connects to AMQP when configured and wires the services.
// The caller owns App.Cleanup.
func NewApp(ctx context.Context, config Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	app := &App{Repo: repo, Caches: cache.NewManager()}
	app.AMQP = connectAMQP(ctx, config, logger)

	// A nil *amqp.Client must not become a non-nil Publisher.
	var publisher services.Publisher
	if app.AMQP != nil {
		publisher = app.AMQP
	}

	var summaries cache.Cache[core.PeriodSummary]
	if config.SummaryCacheSize > 0 && config.SummaryCacheTTL > 0 {
		lru := cache.NewLRUCache[core.PeriodSummary](config.SummaryCacheSize, config.SummaryCacheTTL)
		app.Caches.Register(lru)
		app.Caches.StartCleanup(config.SummaryCacheTTL)
		summaries = lru
	}

	app.Groups = services.NewGroupService(repo)
	app.Accounts = services.NewAccountService(repo, config.SeedDemoData)
	app.Profiles = services.NewProfileService(repo)
	app.Invites = services.NewInviteService(repo, app.Groups, config.InviteTTL, config.PublicOrigin)
	app.Ledger = services.NewLedgerService(repo, app.Groups, publisher, summaries)
	app.Categories = services.NewCategoryService(repo, app.Groups, app.Ledger)

	app.Cleanup = func() error {
		app.Caches.Stop()
		var errs []error
		if app.AMQP != nil {
			errs = append(errs, app.AMQP.Close())
		}
		errs = append(errs, repo.Close())
		return errors.Join(errs...)
	}

	logger.InfoContext(ctx, "Initialized backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", app.AMQP != nil,
		"summary_cache", summaries != nil)
	return app, nil
}

func connectAMQP(ctx context.Context, config Config, logger *slog.Logger) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

// NewExporter builds the ledger exporter selected by config.Exporter.
func NewExporter(ctx context.Context, config Config) (sheets.LedgerExporter, error) {
	switch config.Exporter {
	case SheetsExporter:
		x, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			SheetName:          config.GoogleSheetName,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
		}
		return x, nil
	case MemoryExporter:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported export backend: %s", config.Exporter)
	}
}

// ExportService wires the exporter selected by config to the app's repository.
func (a *App) ExportService(ctx context.Context, config Config) (*services.ExportService, error) {
	exporter, err := NewExporter(ctx, config)
	if err != nil {
		return nil, err
	}
	return services.NewExportService(a.Repo, exporter), nil
}
