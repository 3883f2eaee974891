package storage

import (
	"context"

	"dompet/internal/core"
)

func (q *Queries) CreateUser(ctx context.Context, u core.User) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, formatTime(u.CreatedAt))
	return mapError(err, "create user")
}

func (q *Queries) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.FullName, timestamp{&u.CreatedAt})
	return u, mapError(err, "get user")
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.FullName, timestamp{&u.CreatedAt})
	return u, mapError(err, "get user by email")
}

func (q *Queries) CreateProfile(ctx context.Context, p core.Profile) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO profiles (id, full_name, email, month_start_day, locale, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.FullName, p.Email, p.MonthStartDay, string(p.Locale), formatTime(p.UpdatedAt))
	return mapError(err, "create profile")
}

func (q *Queries) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	var (
		p      core.Profile
		locale string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, month_start_day, locale, updated_at FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.FullName, &p.Email, &p.MonthStartDay, &locale, timestamp{&p.UpdatedAt})
	p.Locale = core.Locale(locale)
	return p, mapError(err, "get profile")
}

// UpdateProfile writes the mutable profile settings.
func (q *Queries) UpdateProfile(ctx context.Context, p core.Profile) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE profiles SET full_name = ?, month_start_day = ?, locale = ?, updated_at = ? WHERE id = ?`,
		p.FullName, p.MonthStartDay, string(p.Locale), formatTime(p.UpdatedAt), p.ID)
	return expectOne(res, err, "update profile")
}
