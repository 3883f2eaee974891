package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dompet/internal/core"
	"dompet/internal/storage"
)

// GroupService owns group metadata and the role checks every other service relies on.
type GroupService struct {
	repo *storage.SQLiteRepository
}

func NewGroupService(repo *storage.SQLiteRepository) *GroupService {
	return &GroupService{repo: repo}
}

// Create inserts the group and makes createdBy its admin in one transaction.
func (s *GroupService) Create(ctx context.Context, name, description, createdBy string) (core.Group, error) {
	now := s.repo.Now()
	g := core.Group{
		ID:          newID(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.Validate(); err != nil {
		return core.Group{}, err
	}
	if _, err := s.repo.GetUser(ctx, createdBy); err != nil {
		return core.Group{}, fmt.Errorf("load creator: %w", err)
	}
	if _, err := s.repo.CreateGroupWithAdmin(ctx, g); err != nil {
		return core.Group{}, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// Update applies the allow-listed patch. Only admins may edit group metadata.
func (s *GroupService) Update(ctx context.Context, groupID, userID string, patch core.GroupPatch) (core.Group, error) {
	if patch.IsEmpty() {
		return core.Group{}, core.ErrEmptyUpdate
	}
	if _, err := s.RequireAdmin(ctx, groupID, userID); err != nil {
		return core.Group{}, err
	}
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return core.Group{}, fmt.Errorf("load group: %w", err)
	}

	patch.Apply(&g)
	g.Name = strings.TrimSpace(g.Name)
	g.UpdatedAt = s.repo.Now()
	if err := g.Validate(); err != nil {
		return core.Group{}, err
	}
	if err := s.repo.UpdateGroup(ctx, g); err != nil {
		return core.Group{}, fmt.Errorf("update group: %w", err)
	}
	return g, nil
}

func (s *GroupService) Get(ctx context.Context, groupID, userID string) (core.Group, error) {
	if _, err := s.RequireMember(ctx, groupID, userID); err != nil {
		return core.Group{}, err
	}
	return s.repo.GetGroup(ctx, groupID)
}

func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]core.Group, error) {
	if userID == "" {
		return nil, core.NewValidationError("userId", "is required")
	}
	return s.repo.ListGroupsForUser(ctx, userID)
}

func (s *GroupService) ListMembers(ctx context.Context, groupID, userID string) ([]core.Member, error) {
	if _, err := s.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
}

// RequireMember returns the caller's membership. A missing group is ErrNotFound,
// a non-member is ErrForbidden.
func (s *GroupService) RequireMember(ctx context.Context, groupID, userID string) (core.Membership, error) {
	if userID == "" {
		return core.Membership{}, core.NewValidationError("userId", "is required")
	}
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return core.Membership{}, fmt.Errorf("load group: %w", err)
	}
	m, err := s.repo.GetMembership(ctx, userID, groupID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Membership{}, fmt.Errorf("%w: not a member of this group", core.ErrForbidden)
	}
	if err != nil {
		return core.Membership{}, fmt.Errorf("load membership: %w", err)
	}
	return m, nil
}

func (s *GroupService) RequireAdmin(ctx context.Context, groupID, userID string) (core.Membership, error) {
	m, err := s.RequireMember(ctx, groupID, userID)
	if err != nil {
		return core.Membership{}, err
	}
	if !m.Role.CanManageGroup() {
		return core.Membership{}, fmt.Errorf("%w: admin role required", core.ErrForbidden)
	}
	return m, nil
}
