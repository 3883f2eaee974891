package storage

import (
	"context"
	"fmt"

	"dompet/internal/core"
)

const groupColumns = `g.id, g.name, g.description, g.created_by, g.created_at, g.updated_at`

func scanGroup(s scanner) (core.Group, error) {
	var g core.Group
	err := s.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, timestamp{&g.CreatedAt}, timestamp{&g.UpdatedAt})
	return g, err
}

func (q *Queries) CreateGroup(ctx context.Context, g core.Group) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO finance_groups (id, name, description, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Description, g.CreatedBy, formatTime(g.CreatedAt), formatTime(g.UpdatedAt))
	return mapError(err, "create group")
}

func (q *Queries) GetGroup(ctx context.Context, id string) (core.Group, error) {
	g, err := scanGroup(q.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM finance_groups g WHERE g.id = ?`, id))
	return g, mapError(err, "get group")
}

func (q *Queries) UpdateGroup(ctx context.Context, g core.Group) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE finance_groups SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		g.Name, g.Description, formatTime(g.UpdatedAt), g.ID)
	return expectOne(res, err, "update group")
}

// ListGroupsForUser returns every group the user is a member of, oldest first.
func (q *Queries) ListGroupsForUser(ctx context.Context, userID string) ([]core.Group, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+groupColumns+`
		 FROM finance_groups g
		 JOIN memberships m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at, g.id`, userID)
	if err != nil {
		return nil, mapError(err, "list groups")
	}
	defer rows.Close()

	groups := make([]core.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, mapError(rows.Err(), "list groups")
}

// AddMembership inserts a membership unless one already exists for (user, group).
// It reports whether a row was inserted; an existing membership keeps its role.
func (q *Queries) AddMembership(ctx context.Context, m core.Membership) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO memberships (user_id, group_id, role, joined_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, group_id) DO NOTHING`,
		m.UserID, m.GroupID, string(m.Role), formatTime(m.JoinedAt))
	if err != nil {
		return false, mapError(err, "add membership")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err, "add membership")
	}
	return n == 1, nil
}

func (q *Queries) GetMembership(ctx context.Context, userID, groupID string) (core.Membership, error) {
	var (
		m    core.Membership
		role string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT user_id, group_id, role, joined_at FROM memberships WHERE user_id = ? AND group_id = ?`,
		userID, groupID).
		Scan(&m.UserID, &m.GroupID, &role, timestamp{&m.JoinedAt})
	m.Role = core.Role(role)
	return m, mapError(err, "get membership")
}

// ListMembers returns the group's members with their profile names, admins first.
func (q *Queries) ListMembers(ctx context.Context, groupID string) ([]core.Member, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT m.user_id, m.group_id, m.role, m.joined_at,
		        COALESCE(NULLIF(p.full_name, ''), u.full_name), u.email
		 FROM memberships m
		 JOIN users u ON u.id = m.user_id
		 LEFT JOIN profiles p ON p.id = m.user_id
		 WHERE m.group_id = ?
		 ORDER BY m.role = 'admin' DESC, m.joined_at, m.user_id`, groupID)
	if err != nil {
		return nil, mapError(err, "list members")
	}
	defer rows.Close()

	members := make([]core.Member, 0)
	for rows.Next() {
		var (
			m    core.Member
			role string
		)
		if err := rows.Scan(&m.UserID, &m.GroupID, &role, timestamp{&m.JoinedAt}, &m.FullName, &m.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = core.Role(role)
		members = append(members, m)
	}
	return members, mapError(rows.Err(), "list members")
}
