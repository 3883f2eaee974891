package services

import (
	"context"
	"errors"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/core"
	applog "dompet/internal/log"

	"github.com/google/uuid"
)

// Publisher sends ledger events to the export pipeline. *amqp.Client satisfies it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

var _ Publisher = (*amqp.Client)(nil)

func newID() string {
	return uuid.NewString()
}

// publish is best effort: the write it follows has already committed.
func publish(ctx context.Context, p Publisher, ev *amqp.LedgerEvent) {
	if p == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping ledger event",
			"kind", ev.Kind, "id", ev.ID)
		return
	}
	if err := p.PublishLedgerEvent(ctx, ev); err != nil {
		fields := applog.NewFields().
			WithOperation(ev.Op).
			WithEntry(ev.GroupID, string(ev.Kind), ev.ID).
			WithError(err, applog.ErrorTypeInternal)
		applog.FromContext(ctx).LogFields(ctx, slog.LevelWarn, "Failed to publish ledger event", fields)
	}
}

func publishSync(ctx context.Context, p Publisher, e core.LedgerEntry) {
	publish(ctx, p, amqp.NewSyncEvent(e.Kind, e.ID, e.GroupID, e.Version))
}

func publishDelete(ctx context.Context, p Publisher, e core.LedgerEntry) {
	publish(ctx, p, amqp.NewDeleteEvent(e))
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
