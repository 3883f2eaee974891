package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dompet/internal/core"
)

func (q *Queries) CreateInvite(ctx context.Context, inv core.Invite) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO invites (token, group_id, role, created_by, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inv.Token, inv.GroupID, string(inv.Role), inv.CreatedBy, formatTime(inv.ExpiresAt), formatTime(inv.CreatedAt))
	return mapError(err, "create invite")
}

func (q *Queries) GetInvite(ctx context.Context, token string) (core.Invite, error) {
	var (
		inv        core.Invite
		role       string
		acceptedBy sql.NullString
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT token, group_id, role, created_by, expires_at, accepted_at, accepted_by, created_at
		 FROM invites WHERE token = ?`, token).
		Scan(&inv.Token, &inv.GroupID, &role, &inv.CreatedBy, timestamp{&inv.ExpiresAt},
			nullTimestamp{&inv.AcceptedAt}, &acceptedBy, timestamp{&inv.CreatedAt})
	inv.Role = core.Role(role)
	inv.AcceptedBy = acceptedBy.String
	return inv, mapError(err, "get invite")
}

// ClaimInvite marks the invite accepted by userID if it is unexpired and either unaccepted
// or already accepted by the same user. The first acceptance time is preserved.
// Unknown, expired and foreign-accepted tokens all yield core.ErrInvalidInvite.
func (q *Queries) ClaimInvite(ctx context.Context, token, userID string, now time.Time) (string, core.Role, error) {
	var groupID, role string
	err := q.db.QueryRowContext(ctx,
		`UPDATE invites
		 SET accepted_at = COALESCE(accepted_at, ?), accepted_by = COALESCE(accepted_by, ?)
		 WHERE token = ? AND expires_at >= ? AND (accepted_at IS NULL OR accepted_by = ?)
		 RETURNING group_id, role`,
		formatTime(now), userID, token, formatTime(now), userID).
		Scan(&groupID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", core.ErrInvalidInvite
	}
	if err != nil {
		return "", "", mapError(err, "claim invite")
	}
	if role == "" {
		role = string(core.RoleMember)
	}
	return groupID, core.Role(role), nil
}

// ListPendingInvites returns the group's invites that are neither accepted nor expired at now.
func (q *Queries) ListPendingInvites(ctx context.Context, groupID string, now time.Time) ([]core.Invite, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT token, group_id, role, created_by, expires_at, created_at
		 FROM invites
		 WHERE group_id = ? AND accepted_at IS NULL AND expires_at >= ?
		 ORDER BY created_at`, groupID, formatTime(now))
	if err != nil {
		return nil, mapError(err, "list invites")
	}
	defer rows.Close()

	invites := make([]core.Invite, 0)
	for rows.Next() {
		var (
			inv  core.Invite
			role string
		)
		if err := rows.Scan(&inv.Token, &inv.GroupID, &role, &inv.CreatedBy,
			timestamp{&inv.ExpiresAt}, timestamp{&inv.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		inv.Role = core.Role(role)
		invites = append(invites, inv)
	}
	return invites, mapError(rows.Err(), "list invites")
}

// DeleteExpiredInvites removes unaccepted invites that expired before cutoff.
func (q *Queries) DeleteExpiredInvites(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM invites WHERE accepted_at IS NULL AND expires_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, mapError(err, "delete expired invites")
	}
	n, err := res.RowsAffected()
	return n, mapError(err, "delete expired invites")
}
