package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dompet/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 8, 10, 9, 30, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "dompet.db"))
	require.NoError(t, err)
	repo.SetClock(func() time.Time { return testNow })
	t.Cleanup(func() { repo.Close() })
	return repo
}

// registerUser creates a user with a personal group and returns both ids.
func registerUser(t *testing.T, repo *SQLiteRepository, email string) (userID, groupID string) {
	t.Helper()
	userID, groupID = uuid.NewString(), uuid.NewString()
	err := repo.Register(context.Background(),
		core.User{ID: userID, Email: email, FullName: email, CreatedAt: testNow},
		core.Profile{ID: userID, Email: email, FullName: email, MonthStartDay: 1, Locale: core.LocaleID, UpdatedAt: testNow},
		core.Group{ID: groupID, Name: "Personal", CreatedBy: userID, CreatedAt: testNow, UpdatedAt: testNow},
	)
	require.NoError(t, err)
	return userID, groupID
}

func createInvite(t *testing.T, repo *SQLiteRepository, groupID, createdBy string, role core.Role, ttl time.Duration) string {
	t.Helper()
	token, err := core.NewInviteToken()
	require.NoError(t, err)
	require.NoError(t, repo.CreateInvite(context.Background(), core.Invite{
		Token:     token,
		GroupID:   groupID,
		Role:      role,
		CreatedBy: createdBy,
		ExpiresAt: testNow.Add(ttl),
		CreatedAt: testNow,
	}))
	return token
}

func failMembershipInserts(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	_, err := repo.db.Exec(`CREATE TRIGGER fail_membership BEFORE INSERT ON memberships
		BEGIN SELECT RAISE(ABORT, 'membership insert failed'); END`)
	require.NoError(t, err)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	userID, groupID := registerUser(t, repo, "ani@example.com")

	u, err := repo.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "ani@example.com", u.Email)
	assert.True(t, u.CreatedAt.Equal(testNow))

	p, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.MonthStartDay)
	assert.Equal(t, core.LocaleID, p.Locale)

	m, err := repo.GetMembership(ctx, userID, groupID)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, m.Role)

	_, err = repo.GetUserByEmail(ctx, "ANI@example.com")
	require.NoError(t, err, "email lookup is case-insensitive")
}

func TestRegisterDuplicateEmailLeavesNoPartialRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	registerUser(t, repo, "budi@example.com")

	userID, groupID := uuid.NewString(), uuid.NewString()
	err := repo.Register(ctx,
		core.User{ID: userID, Email: "budi@example.com", CreatedAt: testNow},
		core.Profile{ID: userID, MonthStartDay: 1, Locale: core.LocaleID, UpdatedAt: testNow},
		core.Group{ID: groupID, Name: "Personal", CreatedBy: userID, CreatedAt: testNow, UpdatedAt: testNow},
	)
	require.ErrorIs(t, err, core.ErrConflict)

	_, err = repo.GetGroup(ctx, groupID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateGroupWithAdminIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	userID, _ := registerUser(t, repo, "citra@example.com")

	g := core.Group{ID: uuid.NewString(), Name: "Rumah", CreatedBy: userID, CreatedAt: testNow, UpdatedAt: testNow}
	m, err := repo.CreateGroupWithAdmin(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, m.Role)

	groups, err := repo.ListGroupsForUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	failMembershipInserts(t, repo)
	orphan := core.Group{ID: uuid.NewString(), Name: "Orphan", CreatedBy: userID, CreatedAt: testNow, UpdatedAt: testNow}
	_, err = repo.CreateGroupWithAdmin(ctx, orphan)
	require.Error(t, err)

	_, err = repo.GetGroup(ctx, orphan.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "group must roll back with its membership")
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	admin, groupID := registerUser(t, repo, "admin@example.com")
	member, _ := registerUser(t, repo, "member@example.com")

	token := createInvite(t, repo, groupID, admin, core.RoleMember, time.Hour)
	_, err := repo.AcceptInvite(ctx, token, member)
	require.NoError(t, err)

	members, err := repo.ListMembers(ctx, groupID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, admin, members[0].UserID)
	assert.Equal(t, core.RoleAdmin, members[0].Role)
	assert.Equal(t, member, members[1].UserID)
	assert.Equal(t, "member@example.com", members[1].Email)
}

func TestAcceptInvite(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	admin, groupID := registerUser(t, repo, "admin@example.com")
	userA, _ := registerUser(t, repo, "a@example.com")
	userB, _ := registerUser(t, repo, "b@example.com")

	token := createInvite(t, repo, groupID, admin, core.RoleMember, 7*24*time.Hour)

	res, err := repo.AcceptInvite(ctx, token, userA)
	require.NoError(t, err)
	assert.Equal(t, groupID, res.GroupID)
	assert.Equal(t, core.RoleMember, res.Role)
	assert.False(t, res.AlreadyMember)

	inv, err := repo.GetInvite(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, inv.AcceptedAt)
	assert.Equal(t, userA, inv.AcceptedBy)
	assert.Equal(t, core.InviteAccepted, inv.State(testNow))

	t.Run("single use", func(t *testing.T) {
		_, err := repo.AcceptInvite(ctx, token, userB)
		assert.ErrorIs(t, err, core.ErrInvalidInvite)
		_, err = repo.GetMembership(ctx, userB, groupID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("same user re-accepts", func(t *testing.T) {
		res, err := repo.AcceptInvite(ctx, token, userA)
		require.NoError(t, err)
		assert.True(t, res.AlreadyMember)

		members, err := repo.ListMembers(ctx, groupID)
		require.NoError(t, err)
		assert.Len(t, members, 2)

		again, err := repo.GetInvite(ctx, token)
		require.NoError(t, err)
		assert.True(t, again.AcceptedAt.Equal(*inv.AcceptedAt), "first acceptance time is kept")
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.AcceptInvite(ctx, "00000000000000000000000000000000", userB)
		assert.ErrorIs(t, err, core.ErrInvalidInvite)
	})
}

func TestAcceptInviteExpired(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	admin, groupID := registerUser(t, repo, "admin@example.com")
	user, _ := registerUser(t, repo, "late@example.com")

	token := createInvite(t, repo, groupID, admin, core.RoleMember, -time.Minute)
	_, err := repo.AcceptInvite(ctx, token, user)
	require.ErrorIs(t, err, core.ErrInvalidInvite)

	inv, err := repo.GetInvite(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, inv.AcceptedAt)
	assert.Equal(t, core.InviteExpired, inv.State(testNow))

	n, err := repo.DeleteExpiredInvites(ctx, testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAcceptInviteByExistingMemberConsumesToken(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	admin, groupID := registerUser(t, repo, "admin@example.com")

	token := createInvite(t, repo, groupID, admin, core.RoleMember, time.Hour)
	res, err := repo.AcceptInvite(ctx, token, admin)
	require.NoError(t, err)
	assert.True(t, res.AlreadyMember)

	m, err := repo.GetMembership(ctx, admin, groupID)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, m.Role, "existing role is not downgraded")

	inv, err := repo.GetInvite(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, admin, inv.AcceptedBy)
}

func TestAcceptInviteMembershipFailureKeepsToken(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	admin, groupID := registerUser(t, repo, "admin@example.com")
	user, _ := registerUser(t, repo, "user@example.com")
	token := createInvite(t, repo, groupID, admin, core.RoleAdmin, time.Hour)

	failMembershipInserts(t, repo)
	_, err := repo.AcceptInvite(ctx, token, user)
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrInvalidInvite)

	inv, err := repo.GetInvite(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, inv.AcceptedAt, "failed membership insert must not consume the token")
	assert.Empty(t, inv.AcceptedBy)

	_, err = repo.db.Exec(`DROP TRIGGER fail_membership`)
	require.NoError(t, err)
	res, err := repo.AcceptInvite(ctx, token, user)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, res.Role)
}

func TestAcceptInviteConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	admin, groupID := registerUser(t, repo, "admin@example.com")
	token := createInvite(t, repo, groupID, admin, core.RoleMember, time.Hour)

	const n = 8
	users := make([]string, n)
	for i := range users {
		users[i], _ = registerUser(t, repo, uuid.NewString()+"@example.com")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := repo.AcceptInvite(ctx, token, userID)
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, core.ErrInvalidInvite)
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	members, err := repo.ListMembers(ctx, groupID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestProfileUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	userID, _ := registerUser(t, repo, "dewi@example.com")

	p, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	p.MonthStartDay = 25
	p.Locale = core.LocaleEN
	p.UpdatedAt = testNow.Add(time.Hour)
	require.NoError(t, repo.UpdateProfile(ctx, p))

	got, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.MonthStartDay)
	assert.Equal(t, core.LocaleEN, got.Locale)

	p.MonthStartDay = 40
	assert.ErrorIs(t, repo.UpdateProfile(ctx, p), core.ErrValidation, "CHECK constraint maps to validation")

	err = repo.UpdateProfile(ctx, core.Profile{ID: "missing", MonthStartDay: 1, Locale: core.LocaleID})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	v, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 1, v)

	require.NoError(t, RollbackMigrations(path, 1))
	v, _, err = MigrationVersion(path)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }
