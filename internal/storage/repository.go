package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"dompet/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	*Queries
	db  *sql.DB
	now func() time.Time
}

// DSN enables foreign keys and WAL, waits on busy locks, and starts every
// transaction with BEGIN IMMEDIATE so concurrent writers serialize up front.
func DSN(dbPath string) string {
	v := url.Values{}
	v.Add("_pragma", "foreign_keys(1)")
	v.Add("_pragma", "busy_timeout(5000)")
	v.Add("_pragma", "journal_mode(WAL)")
	v.Set("_txlock", "immediate")
	return "file:" + dbPath + "?" + v.Encode()
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		Queries: New(db),
		db:      db,
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SetClock overrides the time source used for timestamps and invite expiry.
func (r *SQLiteRepository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *SQLiteRepository) Now() time.Time {
	return r.now().UTC()
}

// withTx runs fn in one transaction. Any error from fn rolls everything back.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.Queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Register creates the user, the profile, a personal group and the admin membership atomically.
func (r *SQLiteRepository) Register(ctx context.Context, u core.User, p core.Profile, g core.Group) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.CreateUser(ctx, u); err != nil {
			return err
		}
		if err := q.CreateProfile(ctx, p); err != nil {
			return err
		}
		if err := q.CreateGroup(ctx, g); err != nil {
			return err
		}
		_, err := q.AddMembership(ctx, core.Membership{
			UserID:   u.ID,
			GroupID:  g.ID,
			Role:     core.RoleAdmin,
			JoinedAt: g.CreatedAt,
		})
		return err
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID, "group_id", g.ID)
	return nil
}

// CreateGroupWithAdmin inserts the group and its creator's admin membership atomically.
func (r *SQLiteRepository) CreateGroupWithAdmin(ctx context.Context, g core.Group) (core.Membership, error) {
	m := core.Membership{UserID: g.CreatedBy, GroupID: g.ID, Role: core.RoleAdmin, JoinedAt: g.CreatedAt}
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.CreateGroup(ctx, g); err != nil {
			return err
		}
		_, err := q.AddMembership(ctx, m)
		return err
	})
	if err != nil {
		return core.Membership{}, err
	}

	slog.InfoContext(ctx, "Group created", "group_id", g.ID, "created_by", g.CreatedBy)
	return m, nil
}

// AcceptInvite redeems token for userID in a single transaction.
//
// The claim is a conditional UPDATE: it matches only an unexpired invite that is either
// unaccepted or already accepted by the same user, so concurrent redemptions by different
// users cannot both succeed. The membership insert follows in the same transaction; if it
// fails the claim is rolled back and the token stays usable.
func (r *SQLiteRepository) AcceptInvite(ctx context.Context, token, userID string) (core.AcceptResult, error) {
	now := r.Now()
	var res core.AcceptResult
	err := r.withTx(ctx, func(q *Queries) error {
		groupID, role, err := q.ClaimInvite(ctx, token, userID, now)
		if err != nil {
			return err
		}
		inserted, err := q.AddMembership(ctx, core.Membership{
			UserID:   userID,
			GroupID:  groupID,
			Role:     role,
			JoinedAt: now,
		})
		if err != nil {
			return err
		}
		res = core.AcceptResult{GroupID: groupID, Role: role, AlreadyMember: !inserted}
		return nil
	})
	if err != nil {
		return core.AcceptResult{}, err
	}

	slog.InfoContext(ctx, "Invite accepted",
		"group_id", res.GroupID,
		"user_id", userID,
		"role", res.Role,
		"already_member", res.AlreadyMember)
	return res, nil
}
