package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"dompet/internal/core"
)

// Sync states of ledger rows awaiting export.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

var ledgerTables = map[core.EntryKind]string{
	core.EntryBudget:   "budgets",
	core.EntryExpense:  "expenses",
	core.EntryTransfer: "transfers",
}

func tableFor(kind core.EntryKind) (string, error) {
	t, ok := ledgerTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown ledger entry kind %q", kind)
	}
	return t, nil
}

// Budgets

const budgetColumns = `id, title, amount, category_id, wallet_id, group_id, start_date, end_date,
	created_by, version, created_at, updated_at`

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b      core.Budget
		wallet sql.NullString
	)
	err := s.Scan(&b.ID, &b.Title, &b.Amount, &b.CategoryID, &wallet, &b.GroupID, &b.StartDate, &b.EndDate,
		&b.CreatedBy, &b.Version, timestamp{&b.CreatedAt}, timestamp{&b.UpdatedAt})
	b.WalletID = wallet.String
	return b, err
}

func (q *Queries) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		b.ID, b.Title, b.Amount.String(), b.CategoryID, nullString(b.WalletID), b.GroupID, b.StartDate, b.EndDate,
		b.CreatedBy, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	return mapError(err, "create budget")
}

func (q *Queries) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	b, err := scanBudget(q.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	return b, mapError(err, "get budget")
}

// UpdateBudget rewrites the mutable fields, bumps the version and queues the row for export.
func (q *Queries) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE budgets SET title = ?, amount = ?, category_id = ?, wallet_id = ?, start_date = ?, end_date = ?,
		 version = version + 1, sync_status = 'pending', updated_at = ?
		 WHERE id = ?`,
		b.Title, b.Amount.String(), b.CategoryID, nullString(b.WalletID), b.StartDate, b.EndDate,
		formatTime(b.UpdatedAt), b.ID)
	return expectOne(res, err, "update budget")
}

func (q *Queries) DeleteBudget(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	return expectOne(res, err, "delete budget")
}

// ListBudgetsInPeriod returns the group's budgets starting within p, inclusive.
func (q *Queries) ListBudgetsInPeriod(ctx context.Context, groupID string, p core.Period) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets
		 WHERE group_id = ? AND start_date BETWEEN ? AND ?
		 ORDER BY start_date, created_at`, groupID, p.Start, p.End)
	if err != nil {
		return nil, mapError(err, "list budgets")
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, mapError(rows.Err(), "list budgets")
}

// Expenses

const expenseColumns = `id, title, description, amount, category_id, wallet_id, group_id, expense_date,
	created_by, version, created_at, updated_at`

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e      core.Expense
		wallet sql.NullString
	)
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Amount, &e.CategoryID, &wallet, &e.GroupID, &e.ExpenseDate,
		&e.CreatedBy, &e.Version, timestamp{&e.CreatedAt}, timestamp{&e.UpdatedAt})
	e.WalletID = wallet.String
	return e, err
}

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		e.ID, e.Title, e.Description, e.Amount.String(), e.CategoryID, nullString(e.WalletID), e.GroupID, e.ExpenseDate,
		e.CreatedBy, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	return mapError(err, "create expense")
}

func (q *Queries) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := scanExpense(q.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	return e, mapError(err, "get expense")
}

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, description = ?, amount = ?, category_id = ?, wallet_id = ?, expense_date = ?,
		 version = version + 1, sync_status = 'pending', updated_at = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.Amount.String(), e.CategoryID, nullString(e.WalletID), e.ExpenseDate,
		formatTime(e.UpdatedAt), e.ID)
	return expectOne(res, err, "update expense")
}

func (q *Queries) DeleteExpense(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	return expectOne(res, err, "delete expense")
}

func (q *Queries) ListExpensesInPeriod(ctx context.Context, groupID string, p core.Period) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE group_id = ? AND expense_date BETWEEN ? AND ?
		 ORDER BY expense_date, created_at`, groupID, p.Start, p.End)
	if err != nil {
		return nil, mapError(err, "list expenses")
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, mapError(rows.Err(), "list expenses")
}

// Transfers

const transferColumns = `id, title, description, amount, from_wallet_id, to_wallet_id, group_id, transfer_date,
	created_by, version, created_at`

func scanTransfer(s scanner) (core.Transfer, error) {
	var t core.Transfer
	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.Amount, &t.FromWalletID, &t.ToWalletID, &t.GroupID,
		&t.TransferDate, &t.CreatedBy, &t.Version, timestamp{&t.CreatedAt})
	return t, err
}

func (q *Queries) CreateTransfer(ctx context.Context, t core.Transfer) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO transfers (`+transferColumns+`, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		t.ID, t.Title, t.Description, t.Amount.String(), t.FromWalletID, t.ToWalletID, t.GroupID, t.TransferDate,
		t.CreatedBy, formatTime(t.CreatedAt), formatTime(t.CreatedAt))
	return mapError(err, "create transfer")
}

func (q *Queries) GetTransfer(ctx context.Context, id string) (core.Transfer, error) {
	t, err := scanTransfer(q.db.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = ?`, id))
	return t, mapError(err, "get transfer")
}

func (q *Queries) DeleteTransfer(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	return expectOne(res, err, "delete transfer")
}

func (q *Queries) ListTransfersInPeriod(ctx context.Context, groupID string, p core.Period) ([]core.Transfer, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		 WHERE group_id = ? AND transfer_date BETWEEN ? AND ?
		 ORDER BY transfer_date, created_at`, groupID, p.Start, p.End)
	if err != nil {
		return nil, mapError(err, "list transfers")
	}
	defer rows.Close()

	out := make([]core.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, t)
	}
	return out, mapError(rows.Err(), "list transfers")
}

// Export sync state

// PendingEntry identifies a ledger row awaiting export.
type PendingEntry struct {
	Kind    core.EntryKind
	ID      string
	Version int64
}

// GetPendingSync returns up to limit rows across all ledger tables, oldest first.
func (q *Queries) GetPendingSync(ctx context.Context, limit int) ([]PendingEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT kind, id, version FROM (
		     SELECT 'budget' AS kind, id, version, created_at FROM budgets WHERE sync_status = 'pending'
		     UNION ALL
		     SELECT 'expense', id, version, created_at FROM expenses WHERE sync_status = 'pending'
		     UNION ALL
		     SELECT 'transfer', id, version, created_at FROM transfers WHERE sync_status = 'pending'
		 )
		 ORDER BY created_at, id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, mapError(err, "get pending sync")
	}
	defer rows.Close()

	out := make([]PendingEntry, 0)
	for rows.Next() {
		var (
			p    PendingEntry
			kind string
		)
		if err := rows.Scan(&kind, &p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		p.Kind = core.EntryKind(kind)
		out = append(out, p)
	}
	return out, mapError(rows.Err(), "get pending sync")
}

// GetEntry loads any ledger row in its flattened export shape.
func (q *Queries) GetEntry(ctx context.Context, kind core.EntryKind, id string) (core.LedgerEntry, error) {
	switch kind {
	case core.EntryBudget:
		b, err := q.GetBudget(ctx, id)
		return b.Entry(), err
	case core.EntryExpense:
		e, err := q.GetExpense(ctx, id)
		return e.Entry(), err
	case core.EntryTransfer:
		t, err := q.GetTransfer(ctx, id)
		return t.Entry(), err
	default:
		return core.LedgerEntry{}, fmt.Errorf("get entry: %w", core.NewValidationError("kind", "unknown ledger entry kind"))
	}
}

// MarkSynced marks the row exported. A row edited since version was read stays pending.
func (q *Queries) MarkSynced(ctx context.Context, kind core.EntryKind, id string, version int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx,
		`UPDATE `+table+` SET sync_status = 'synced' WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return mapError(err, "mark synced")
	}

	slog.InfoContext(ctx, "Ledger entry marked as synced", "kind", kind, "id", id, "version", version)
	return nil
}

func (q *Queries) MarkSyncError(ctx context.Context, kind core.EntryKind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, `UPDATE `+table+` SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "mark sync error")
	}

	slog.WarnContext(ctx, "Ledger entry marked with sync error", "kind", kind, "id", id)
	return nil
}

// RetrySyncErrors puts every errored row back into the pending queue.
func (q *Queries) RetrySyncErrors(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"budgets", "expenses", "transfers"} {
		res, err := q.db.ExecContext(ctx, `UPDATE `+table+` SET sync_status = 'pending' WHERE sync_status = 'error'`)
		if err != nil {
			return total, mapError(err, "retry sync errors")
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
