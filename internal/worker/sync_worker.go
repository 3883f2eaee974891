package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/services"
)

// Consumer delivers ledger events until ctx is done. *amqp.Client satisfies it.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

var _ Consumer = (*amqp.Client)(nil)

// SyncWorker exports ledger changes to the spreadsheet as AMQP events arrive.
type SyncWorker struct {
	consumer  Consumer
	export    *services.ExportService
	batchSize int
}

func NewSyncWorker(consumer Consumer, export *services.ExportService, batchSize int) *SyncWorker {
	return &SyncWorker{
		consumer:  consumer,
		export:    export,
		batchSize: batchSize,
	}
}

// Run catches up on rows left pending while the worker was down, then consumes
// events until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	if err := w.StartupSyncCheck(ctx); err != nil {
		slog.WarnContext(ctx, "Startup sync check failed", "error", err)
	}

	err := w.consumer.Consume(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"op", ev.Op,
		"kind", ev.Kind,
		"id", ev.ID,
		"version", ev.Version)
	return w.export.HandleEvent(ctx, ev)
}

// StartupSyncCheck exports a larger batch of pending rows than a regular sweep.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.export.ExportPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "errors", failed)
	return nil
}
