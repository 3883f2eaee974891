package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dompet/internal/core"
	"dompet/internal/storage"
)

// IssuedInvite is what an admin shares with the invitee.
type IssuedInvite struct {
	Token     string    `json:"token"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type InviteService struct {
	repo   *storage.SQLiteRepository
	groups *GroupService
	ttl    time.Duration
	origin string
}

func NewInviteService(repo *storage.SQLiteRepository, groups *GroupService, ttl time.Duration, origin string) *InviteService {
	return &InviteService{repo: repo, groups: groups, ttl: ttl, origin: origin}
}

// Create issues a single-use token granting role in groupID. Only admins may invite.
func (s *InviteService) Create(ctx context.Context, groupID string, role core.Role, createdBy string) (IssuedInvite, error) {
	role, err := core.ParseRole(string(role))
	if err != nil {
		return IssuedInvite{}, err
	}
	if _, err := s.groups.RequireAdmin(ctx, groupID, createdBy); err != nil {
		return IssuedInvite{}, err
	}

	token, err := core.NewInviteToken()
	if err != nil {
		return IssuedInvite{}, err
	}
	now := s.repo.Now()
	inv := core.Invite{
		Token:     token,
		GroupID:   groupID,
		Role:      role,
		CreatedBy: createdBy,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.CreateInvite(ctx, inv); err != nil {
		return IssuedInvite{}, fmt.Errorf("create invite: %w", err)
	}

	slog.InfoContext(ctx, "Invite created",
		"group_id", groupID,
		"role", role,
		"created_by", createdBy,
		"expires_at", inv.ExpiresAt)
	return IssuedInvite{
		Token:     token,
		Link:      core.InviteLink(s.origin, token),
		ExpiresAt: inv.ExpiresAt,
	}, nil
}

// Accept redeems token for userID. Unknown, expired and already-used tokens all
// report core.ErrInvalidInvite.
func (s *InviteService) Accept(ctx context.Context, token, userID string) (core.AcceptResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return core.AcceptResult{}, core.NewValidationError("token", "is required")
	}
	if userID == "" {
		return core.AcceptResult{}, core.NewValidationError("userId", "is required")
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return core.AcceptResult{}, fmt.Errorf("load user: %w", err)
	}
	return s.repo.AcceptInvite(ctx, token, userID)
}

// ListPending returns unexpired, unaccepted invites of a group for its admins.
func (s *InviteService) ListPending(ctx context.Context, groupID, userID string) ([]core.Invite, error) {
	if _, err := s.groups.RequireAdmin(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListPendingInvites(ctx, groupID, s.repo.Now())
}

// PurgeExpired removes invites that expired before now minus grace.
func (s *InviteService) PurgeExpired(ctx context.Context, grace time.Duration) (int64, error) {
	return s.repo.DeleteExpiredInvites(ctx, s.repo.Now().Add(-grace))
}
