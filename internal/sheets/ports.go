package sheets

import (
	"context"

	"dompet/internal/core"
)

// Ports for outbound export adapters.
type (
	// LedgerExporter mirrors ledger rows into an external spreadsheet.
	LedgerExporter interface {
		// UpsertEntry writes the entry, replacing an earlier row with the same id.
		UpsertEntry(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
		// DeleteEntry removes the entry's row. A missing row is not an error.
		DeleteEntry(ctx context.Context, e core.LedgerEntry) error
	}
)
