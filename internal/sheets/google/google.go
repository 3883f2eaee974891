package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"dompet/internal/core"
	ports "dompet/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	// SheetName is the base tab name; the entry's year is prefixed, e.g. "2025 Ledger".
	SheetName string
}

// Exporter writes one row per ledger entry into year-prefixed tabs.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

var _ ports.LedgerExporter = (*Exporter)(nil)

// header is written above the first row of an empty tab.
var header = []any{"Kind", "ID", "Date", "Title", "Description", "Amount", "Category", "Wallet", "From", "To", "Version", "Group"}

func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Ledger"
	}

	slog.InfoContext(ctx, "Google Sheets exporter created", "spreadsheet_id", cfg.SpreadsheetID, "sheet", base)
	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetBase:     base,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// credentials prefers inline JSON, then the configured file, then GOOGLE_APPLICATION_CREDENTIALS.
func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read application credentials: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

func (x *Exporter) UpsertEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if x.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(x.sheetBase, e.Date.Year())
	row := ledgerRow(e)

	resp, err := x.svc.Spreadsheets.Values.Get(x.spreadsheetID, sheet+"!B:B").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read ids from %s: %w", sheet, err)
	}

	if idx := findRow(resp.Values, e.ID); idx >= 0 {
		rng := fmt.Sprintf("%s!A%d:L%d", sheet, idx+1, idx+1)
		_, err := x.svc.Spreadsheets.Values.Update(x.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("update row in %s: %w", sheet, err)
		}
		return rng, nil
	}

	values := [][]any{row}
	if len(resp.Values) == 0 {
		values = [][]any{header, row}
	}
	out, err := x.svc.Spreadsheets.Values.Append(x.spreadsheetID, sheet+"!A:L", &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append row to %s: %w", sheet, err)
	}
	if out.Updates != nil {
		return out.Updates.UpdatedRange, nil
	}
	return sheet, nil
}

func (x *Exporter) DeleteEntry(ctx context.Context, e core.LedgerEntry) error {
	if x.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(x.sheetBase, e.Date.Year())

	resp, err := x.svc.Spreadsheets.Values.Get(x.spreadsheetID, sheet+"!B:B").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ids from %s: %w", sheet, err)
	}
	idx := findRow(resp.Values, e.ID)
	if idx < 0 {
		slog.InfoContext(ctx, "Ledger row not found in sheet, nothing to delete", "sheet", sheet, "id", e.ID)
		return nil
	}

	sheetID, err := x.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(idx),
			EndIndex:   int64(idx + 1),
		}},
	}}}
	if _, err := x.svc.Spreadsheets.BatchUpdate(x.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from %s: %w", idx+1, sheet, err)
	}
	return nil
}

// sheetID resolves a tab title to its numeric id, caching the answer.
func (x *Exporter) sheetID(ctx context.Context, title string) (int64, error) {
	x.mu.Lock()
	id, ok := x.sheetIDs[title]
	x.mu.Unlock()
	if ok {
		return id, nil
	}

	ss, err := x.svc.Spreadsheets.Get(x.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			x.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok = x.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", title)
	}
	return id, nil
}

// ledgerRow renders an entry in column order Kind..Group. Amounts go out as plain decimals.
func ledgerRow(e core.LedgerEntry) []any {
	return []any{
		string(e.Kind),
		e.ID,
		e.Date.String(),
		e.Title,
		e.Description,
		e.Amount.StringFixed(2),
		e.CategoryID,
		e.WalletID,
		e.FromWalletID,
		e.ToWalletID,
		e.Version,
		e.GroupID,
	}
}

// findRow returns the zero-based row whose first cell equals id, or -1.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
