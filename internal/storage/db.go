package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dompet/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds single-statement operations. Multi-row invariants live on SQLiteRepository.
type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timestamp scans the fixed-width text layout into a time.Time.
type timestamp struct{ t *time.Time }

func (s timestamp) Scan(src any) error {
	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	case time.Time:
		*s.t = v.UTC()
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
	parsed, err := time.Parse(timeLayout, str)
	if err != nil {
		return fmt.Errorf("scan timestamp %q: %w", str, err)
	}
	*s.t = parsed
	return nil
}

// nullTimestamp scans a nullable timestamp column.
type nullTimestamp struct{ t **time.Time }

func (s nullTimestamp) Scan(src any) error {
	if src == nil {
		*s.t = nil
		return nil
	}
	var t time.Time
	if err := (timestamp{&t}).Scan(src); err != nil {
		return err
	}
	*s.t = &t
	return nil
}

// nullString maps "" to NULL for optional references.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scanner interface {
	Scan(dest ...any) error
}

// mapError translates driver errors into core sentinels and adds the operation name.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint"), strings.Contains(msg, "PRIMARY KEY constraint"):
			return fmt.Errorf("%s: %w: %v", op, core.ErrConflict, err)
		case strings.Contains(msg, "FOREIGN KEY constraint"):
			return fmt.Errorf("%s: %w: referenced row missing or still in use", op, core.ErrConflict)
		case strings.Contains(msg, "CHECK constraint"):
			return fmt.Errorf("%s: %w", op, core.NewValidationError("", msg))
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectOne turns a zero-row write into ErrNotFound.
func expectOne(res sql.Result, err error, op string) error {
	if err != nil {
		return mapError(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, op)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
