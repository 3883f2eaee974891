package services

import (
	"context"
	"fmt"
	"strings"

	"dompet/internal/core"
	"dompet/internal/storage"
)

// CategoryService manages a group's income, expense and wallet categories.
// Any member may manage them.
type CategoryService struct {
	repo      *storage.SQLiteRepository
	groups    *GroupService
	summaries summaryInvalidator
}

type summaryInvalidator interface {
	invalidateGroup(groupID string)
}

func NewCategoryService(repo *storage.SQLiteRepository, groups *GroupService, ledger *LedgerService) *CategoryService {
	s := &CategoryService{repo: repo, groups: groups}
	if ledger != nil {
		s.summaries = ledger
	}
	return s
}

func (s *CategoryService) Create(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	if _, err := s.groups.RequireMember(ctx, c.GroupID, userID); err != nil {
		return core.Category{}, err
	}
	typ, err := core.ParseCategoryType(string(c.Type))
	if err != nil {
		return core.Category{}, err
	}

	now := s.repo.Now()
	c.ID = newID()
	c.Name = strings.TrimSpace(c.Name)
	c.Type = typ
	c.CreatedBy = userID
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if s.summaries != nil {
		s.summaries.invalidateGroup(c.GroupID)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, groupID, userID string, typ core.CategoryType) ([]core.Category, error) {
	if typ != "" {
		var err error
		if typ, err = core.ParseCategoryType(string(typ)); err != nil {
			return nil, err
		}
	}
	if _, err := s.groups.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx, groupID, typ)
}

func (s *CategoryService) Update(ctx context.Context, id, userID string, patch core.CategoryPatch) (core.Category, error) {
	if patch.IsEmpty() {
		return core.Category{}, core.ErrEmptyUpdate
	}
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("load category: %w", err)
	}
	if _, err := s.groups.RequireMember(ctx, c.GroupID, userID); err != nil {
		return core.Category{}, err
	}

	patch.Apply(&c)
	c.Name = strings.TrimSpace(c.Name)
	c.UpdatedAt = s.repo.Now()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if s.summaries != nil {
		s.summaries.invalidateGroup(c.GroupID)
	}
	return c, nil
}

// Delete fails with core.ErrConflict while records still reference the category.
func (s *CategoryService) Delete(ctx context.Context, id, userID string) error {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if _, err := s.groups.RequireMember(ctx, c.GroupID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if s.summaries != nil {
		s.summaries.invalidateGroup(c.GroupID)
	}
	return nil
}
