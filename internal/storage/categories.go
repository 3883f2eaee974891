package storage

import (
	"context"
	"errors"
	"fmt"

	"dompet/internal/core"
)

const categoryColumns = `id, name, description, icon, color, type, group_id, created_by, created_at, updated_at`

func scanCategory(s scanner) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	err := s.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color, &typ, &c.GroupID, &c.CreatedBy,
		timestamp{&c.CreatedAt}, timestamp{&c.UpdatedAt})
	c.Type = core.CategoryType(typ)
	return c, err
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.Icon, c.Color, string(c.Type), c.GroupID, c.CreatedBy,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	return mapError(err, "create category")
}

func (q *Queries) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	return c, mapError(err, "get category")
}

// ListCategories returns the group's categories ordered by type then name.
// An empty typ returns every type.
func (q *Queries) ListCategories(ctx context.Context, groupID string, typ core.CategoryType) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE group_id = ? AND (? = '' OR type = ?)
		 ORDER BY type, name COLLATE NOCASE, id`, groupID, string(typ), string(typ))
	if err != nil {
		return nil, mapError(err, "list categories")
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, mapError(rows.Err(), "list categories")
}

// categoryRefs matches any budget, expense or transfer pointing at categories.id.
const categoryRefs = `EXISTS (SELECT 1 FROM budgets WHERE category_id = categories.id OR wallet_id = categories.id)
	OR EXISTS (SELECT 1 FROM expenses WHERE category_id = categories.id OR wallet_id = categories.id)
	OR EXISTS (SELECT 1 FROM transfers WHERE from_wallet_id = categories.id OR to_wallet_id = categories.id)`

// UpdateCategory refuses with core.ErrConflict to change the type of a category
// that records still reference.
func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, icon = ?, color = ?, type = ?, updated_at = ?
		 WHERE id = ? AND (type = ? OR NOT (`+categoryRefs+`))`,
		c.Name, c.Description, c.Icon, c.Color, string(c.Type), formatTime(c.UpdatedAt), c.ID, string(c.Type))
	err = expectOne(res, err, "update category")
	if errors.Is(err, core.ErrNotFound) {
		if inUse, lookupErr := q.CategoryInUse(ctx, c.ID); lookupErr == nil && inUse {
			return fmt.Errorf("update category: %w: type cannot change while records use it", core.ErrConflict)
		}
	}
	return err
}

// CategoryInUse reports whether any record references the category. A missing
// category yields core.ErrNotFound.
func (q *Queries) CategoryInUse(ctx context.Context, id string) (bool, error) {
	var inUse bool
	err := q.db.QueryRowContext(ctx,
		`SELECT `+categoryRefs+` FROM categories WHERE id = ?`, id).Scan(&inUse)
	return inUse, mapError(err, "category in use")
}

// DeleteCategory fails with core.ErrConflict while any record still references the category.
func (q *Queries) DeleteCategory(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return expectOne(res, err, "delete category")
}

func (q *Queries) CountCategories(ctx context.Context, groupID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE group_id = ?`, groupID).Scan(&n)
	return n, mapError(err, "count categories")
}
