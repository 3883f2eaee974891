package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/sheets"
	"dompet/internal/storage"
)

// ExportService mirrors ledger rows into the configured spreadsheet exporter.
type ExportService struct {
	repo     *storage.SQLiteRepository
	exporter sheets.LedgerExporter
}

func NewExportService(repo *storage.SQLiteRepository, exporter sheets.LedgerExporter) *ExportService {
	return &ExportService{repo: repo, exporter: exporter}
}

// HandleEvent applies one ledger event. Sync failures are recorded on the row and picked
// up again by the pending sweep, so only delete failures are returned for redelivery.
func (s *ExportService) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	switch ev.Op {
	case amqp.OpSync:
		if err := s.ExportEntry(ctx, ev.Kind, ev.ID); err != nil {
			slog.WarnContext(ctx, "Ledger entry export failed, left for sweep",
				"kind", ev.Kind, "id", ev.ID, "error", err)
		}
		return nil
	case amqp.OpDelete:
		if ev.Entry == nil {
			return fmt.Errorf("delete event %s without entry", ev.ID)
		}
		if err := s.exporter.DeleteEntry(ctx, *ev.Entry); err != nil {
			return fmt.Errorf("delete exported entry: %w", err)
		}
		slog.InfoContext(ctx, "Exported entry deleted", "kind", ev.Kind, "id", ev.ID)
		return nil
	default:
		return fmt.Errorf("unknown ledger event op %q", ev.Op)
	}
}

// ExportEntry writes the current state of one row and marks that version synced.
// A row deleted in the meantime is skipped; its delete event removes the export.
func (s *ExportService) ExportEntry(ctx context.Context, kind core.EntryKind, id string) error {
	entry, err := s.repo.GetEntry(ctx, kind, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.DebugContext(ctx, "Ledger entry gone before export", "kind", kind, "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}

	ref, err := s.exporter.UpsertEntry(ctx, entry)
	if err != nil {
		if markErr := s.repo.MarkSyncError(ctx, kind, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "kind", kind, "id", id, "error", markErr)
		}
		return fmt.Errorf("export entry: %w", err)
	}
	if err := s.repo.MarkSynced(ctx, kind, id, entry.Version); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry exported",
		"kind", kind, "id", id, "version", entry.Version, "ref", ref)
	return nil
}

// ExportPending exports up to limit pending rows, oldest first.
func (s *ExportService) ExportPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := s.repo.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending entries: %w", err)
	}
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if err := s.ExportEntry(ctx, p.Kind, p.ID); err != nil {
			slog.WarnContext(ctx, "Pending export failed", "kind", p.Kind, "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	if len(pending) > 0 {
		slog.InfoContext(ctx, "Pending exports processed",
			"total", len(pending), "synced", synced, "failed", failed)
	}
	return synced, failed, nil
}

// RetryFailed moves rows whose export failed back to pending.
func (s *ExportService) RetryFailed(ctx context.Context) (int64, error) {
	return s.repo.RetrySyncErrors(ctx)
}
