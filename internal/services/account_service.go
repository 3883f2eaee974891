package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"dompet/internal/core"
	"dompet/internal/storage"

	"github.com/shopspring/decimal"
)

// Registration is everything created when a user signs up.
type Registration struct {
	User    core.User    `json:"user"`
	Profile core.Profile `json:"profile"`
	Group   core.Group   `json:"group"`
}

type AccountService struct {
	repo     *storage.SQLiteRepository
	seedDemo bool
}

func NewAccountService(repo *storage.SQLiteRepository, seedDemo bool) *AccountService {
	return &AccountService{repo: repo, seedDemo: seedDemo}
}

// Register creates the user, a profile with month start day 1, a personal group and
// the admin membership in one transaction. Demo data is seeded afterwards when enabled.
func (s *AccountService) Register(ctx context.Context, email, fullName string) (Registration, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return Registration{}, core.NewValidationError("email", "must be a valid email address")
	}
	if fullName == "" {
		fullName = strings.SplitN(email, "@", 2)[0]
	}

	now := s.repo.Now()
	userID := newID()
	reg := Registration{
		User: core.User{ID: userID, Email: email, FullName: fullName, CreatedAt: now},
		Profile: core.Profile{
			ID:            userID,
			FullName:      fullName,
			Email:         email,
			MonthStartDay: 1,
			Locale:        core.LocaleID,
			UpdatedAt:     now,
		},
		Group: core.Group{
			ID:        newID(),
			Name:      "Keuangan " + fullName,
			CreatedBy: userID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if err := reg.Group.Validate(); err != nil {
		return Registration{}, err
	}
	if err := s.repo.Register(ctx, reg.User, reg.Profile, reg.Group); err != nil {
		return Registration{}, fmt.Errorf("register user: %w", err)
	}

	if s.seedDemo {
		if err := s.seed(ctx, reg); err != nil {
			slog.WarnContext(ctx, "Demo data seeding failed",
				"user_id", userID, "group_id", reg.Group.ID, "error", err)
		}
	}
	return reg, nil
}

var defaultCategories = []struct {
	name, icon, color string
	typ               core.CategoryType
}{
	{"Gaji", "briefcase", "#16a34a", core.CategoryIncome},
	{"Makan", "utensils", "#f97316", core.CategoryExpense},
	{"Transportasi", "car", "#0ea5e9", core.CategoryExpense},
	{"Tunai", "wallet", "#64748b", core.CategoryWallet},
}

// seed writes the default categories and one sample expense. It runs outside the
// registration transaction.
func (s *AccountService) seed(ctx context.Context, reg Registration) error {
	n, err := s.repo.CountCategories(ctx, reg.Group.ID)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return nil
	}

	now := s.repo.Now()
	ids := make(map[string]string, len(defaultCategories))
	for _, d := range defaultCategories {
		c := core.Category{
			ID:        newID(),
			Name:      d.name,
			Icon:      d.icon,
			Color:     d.color,
			Type:      d.typ,
			GroupID:   reg.Group.ID,
			CreatedBy: reg.User.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %s: %w", d.name, err)
		}
		ids[d.name] = c.ID
	}

	err = s.repo.CreateExpense(ctx, core.Expense{
		ID:          newID(),
		Title:       "Contoh pengeluaran",
		Amount:      decimal.NewFromInt(25000),
		CategoryID:  ids["Makan"],
		WalletID:    ids["Tunai"],
		GroupID:     reg.Group.ID,
		ExpenseDate: core.DateOf(now),
		CreatedBy:   reg.User.ID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("seed sample expense: %w", err)
	}

	slog.InfoContext(ctx, "Demo data seeded", "group_id", reg.Group.ID)
	return nil
}

type ProfileService struct {
	repo *storage.SQLiteRepository
}

func NewProfileService(repo *storage.SQLiteRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (core.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Update applies the allow-listed fields: full name, month start day and locale.
func (s *ProfileService) Update(ctx context.Context, userID string, patch core.ProfilePatch) (core.Profile, error) {
	if patch.IsEmpty() {
		return core.Profile{}, core.ErrEmptyUpdate
	}
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return core.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if err := patch.Apply(&p); err != nil {
		return core.Profile{}, err
	}
	p.FullName = strings.TrimSpace(p.FullName)
	p.UpdatedAt = s.repo.Now()
	if err := s.repo.UpdateProfile(ctx, p); err != nil {
		return core.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}
