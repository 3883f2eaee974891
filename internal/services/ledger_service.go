package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/storage"

	"golang.org/x/sync/errgroup"
)

// LedgerService records incomes (budgets), expenses and transfers and computes
// period summaries. Any group member may write; every write publishes a LedgerEvent.
type LedgerService struct {
	repo      *storage.SQLiteRepository
	groups    *GroupService
	publisher Publisher
	summaries *cache.Loader[core.PeriodSummary]
}

// NewLedgerService caches summaries in lru, which may be nil to disable caching.
func NewLedgerService(repo *storage.SQLiteRepository, groups *GroupService, publisher Publisher, lru cache.Cache[core.PeriodSummary]) *LedgerService {
	s := &LedgerService{repo: repo, groups: groups, publisher: publisher}
	if lru != nil {
		s.summaries = cache.NewLoader(lru)
	}
	return s
}

// Incomes

func (s *LedgerService) CreateIncome(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	if _, err := s.groups.RequireMember(ctx, b.GroupID, userID); err != nil {
		return core.Budget{}, err
	}

	now := s.repo.Now()
	b.ID = newID()
	b.Title = strings.TrimSpace(b.Title)
	if b.EndDate.IsZero() {
		b.EndDate = b.StartDate
	}
	b.CreatedBy = userID
	b.Version = 1
	b.CreatedAt = now
	b.UpdatedAt = now
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkRecordRefs(ctx, b.GroupID, b.CategoryID, core.CategoryIncome, b.WalletID); err != nil {
		return core.Budget{}, err
	}
	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create income: %w", err)
	}

	s.afterWrite(ctx, b.Entry(), false)
	return b, nil
}

func (s *LedgerService) UpdateIncome(ctx context.Context, id, userID string, patch core.EntryPatch) (core.Budget, error) {
	if patch.IsEmptyForBudget() {
		return core.Budget{}, core.ErrEmptyUpdate
	}
	b, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("load income: %w", err)
	}
	if _, err := s.groups.RequireMember(ctx, b.GroupID, userID); err != nil {
		return core.Budget{}, err
	}

	patch.ApplyBudget(&b)
	b.Title = strings.TrimSpace(b.Title)
	b.UpdatedAt = s.repo.Now()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkRecordRefs(ctx, b.GroupID, b.CategoryID, core.CategoryIncome, b.WalletID); err != nil {
		return core.Budget{}, err
	}
	if err := s.repo.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update income: %w", err)
	}
	b.Version++

	s.afterWrite(ctx, b.Entry(), false)
	return b, nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id, userID string) error {
	b, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return fmt.Errorf("load income: %w", err)
	}
	if _, err := s.groups.RequireMember(ctx, b.GroupID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}

	s.afterWrite(ctx, b.Entry(), true)
	return nil
}

// Expenses

func (s *LedgerService) CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	if _, err := s.groups.RequireMember(ctx, e.GroupID, userID); err != nil {
		return core.Expense{}, err
	}

	now := s.repo.Now()
	e.ID = newID()
	e.Title = strings.TrimSpace(e.Title)
	e.CreatedBy = userID
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.checkRecordRefs(ctx, e.GroupID, e.CategoryID, core.CategoryExpense, e.WalletID); err != nil {
		return core.Expense{}, err
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.afterWrite(ctx, e.Entry(), false)
	return e, nil
}

func (s *LedgerService) UpdateExpense(ctx context.Context, id, userID string, patch core.EntryPatch) (core.Expense, error) {
	if patch.IsEmpty() {
		return core.Expense{}, core.ErrEmptyUpdate
	}
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}
	if _, err := s.groups.RequireMember(ctx, e.GroupID, userID); err != nil {
		return core.Expense{}, err
	}

	patch.ApplyExpense(&e)
	e.Title = strings.TrimSpace(e.Title)
	e.UpdatedAt = s.repo.Now()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.checkRecordRefs(ctx, e.GroupID, e.CategoryID, core.CategoryExpense, e.WalletID); err != nil {
		return core.Expense{}, err
	}
	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	e.Version++

	s.afterWrite(ctx, e.Entry(), false)
	return e, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id, userID string) error {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}
	if _, err := s.groups.RequireMember(ctx, e.GroupID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.afterWrite(ctx, e.Entry(), true)
	return nil
}

// Transfers

func (s *LedgerService) CreateTransfer(ctx context.Context, userID string, t core.Transfer) (core.Transfer, error) {
	if _, err := s.groups.RequireMember(ctx, t.GroupID, userID); err != nil {
		return core.Transfer{}, err
	}

	t.ID = newID()
	t.Title = strings.TrimSpace(t.Title)
	t.CreatedBy = userID
	t.Version = 1
	t.CreatedAt = s.repo.Now()
	if err := t.Validate(); err != nil {
		return core.Transfer{}, err
	}
	if err := s.checkWallet(ctx, t.GroupID, t.FromWalletID, "fromWalletId"); err != nil {
		return core.Transfer{}, err
	}
	if err := s.checkWallet(ctx, t.GroupID, t.ToWalletID, "toWalletId"); err != nil {
		return core.Transfer{}, err
	}
	if err := s.repo.CreateTransfer(ctx, t); err != nil {
		return core.Transfer{}, fmt.Errorf("create transfer: %w", err)
	}

	s.afterWrite(ctx, t.Entry(), false)
	return t, nil
}

func (s *LedgerService) DeleteTransfer(ctx context.Context, id, userID string) error {
	t, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return fmt.Errorf("load transfer: %w", err)
	}
	if _, err := s.groups.RequireMember(ctx, t.GroupID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteTransfer(ctx, id); err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}

	s.afterWrite(ctx, t.Entry(), true)
	return nil
}

// checkRecordRefs requires the category to be of typ and the optional wallet to be a
// wallet category, both in groupID.
func (s *LedgerService) checkRecordRefs(ctx context.Context, groupID, categoryID string, typ core.CategoryType, walletID string) error {
	c, err := s.groupCategory(ctx, groupID, categoryID, "categoryId")
	if err != nil {
		return err
	}
	if c.Type != typ {
		return core.NewValidationError("categoryId", fmt.Sprintf("must be a %s category", typ))
	}
	if walletID == "" {
		return nil
	}
	return s.checkWallet(ctx, groupID, walletID, "walletId")
}

func (s *LedgerService) checkWallet(ctx context.Context, groupID, walletID, field string) error {
	c, err := s.groupCategory(ctx, groupID, walletID, field)
	if err != nil {
		return err
	}
	if !c.Type.IsWallet() {
		return core.NewValidationError(field, "must be a wallet (Dompet) category")
	}
	return nil
}

// groupCategory reports a category of another group the same as a missing one.
func (s *LedgerService) groupCategory(ctx context.Context, groupID, id, field string) (core.Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil || c.GroupID != groupID {
		if err == nil || isNotFound(err) {
			return core.Category{}, core.NewValidationError(field, "unknown category")
		}
		return core.Category{}, fmt.Errorf("load category: %w", err)
	}
	return c, nil
}

func (s *LedgerService) afterWrite(ctx context.Context, e core.LedgerEntry, deleted bool) {
	s.invalidateGroup(e.GroupID)
	if deleted {
		publishDelete(ctx, s.publisher, e)
		return
	}
	publishSync(ctx, s.publisher, e)
}

func (s *LedgerService) invalidateGroup(groupID string) {
	if s.summaries == nil {
		return
	}
	if n := s.summaries.Invalidate(summaryPrefix(groupID)); n > 0 {
		slog.Debug("Summary cache invalidated", "group_id", groupID, "entries", n)
	}
}

// Summary

// Summary aggregates groupID's ledger over the caller's custom month (year, month),
// using the caller's month start day and locale.
func (s *LedgerService) Summary(ctx context.Context, groupID, userID string, year, month int) (core.PeriodSummary, error) {
	if _, err := s.groups.RequireMember(ctx, groupID, userID); err != nil {
		return core.PeriodSummary{}, err
	}
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("load profile: %w", err)
	}
	period, err := core.ResolveMonthRange(year, month, profile.MonthStartDay)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	label, err := core.FormatMonthLabel(year, month, profile.MonthStartDay, profile.Locale)
	if err != nil {
		return core.PeriodSummary{}, err
	}

	load := func(ctx context.Context) (core.PeriodSummary, error) {
		sum, err := s.computeSummary(ctx, groupID, period)
		if err != nil {
			return core.PeriodSummary{}, err
		}
		sum.GroupID = groupID
		sum.Year = year
		sum.Month = month
		sum.MonthStartDay = profile.MonthStartDay
		sum.Label = label
		return sum, nil
	}
	if s.summaries == nil {
		return load(ctx)
	}
	key := summaryPrefix(groupID) + period.Start.String() + ":" + period.End.String() + ":" + string(profile.Locale)
	return s.summaries.Get(ctx, key, load)
}

// computeSummary fetches each record kind for the period once, in parallel.
func (s *LedgerService) computeSummary(ctx context.Context, groupID string, p core.Period) (core.PeriodSummary, error) {
	start := time.Now()
	var (
		ledger  core.Ledger
		wallets []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ledger.Budgets, err = s.repo.ListBudgetsInPeriod(gctx, groupID, p)
		return err
	})
	g.Go(func() (err error) {
		ledger.Expenses, err = s.repo.ListExpensesInPeriod(gctx, groupID, p)
		return err
	})
	g.Go(func() (err error) {
		ledger.Transfers, err = s.repo.ListTransfersInPeriod(gctx, groupID, p)
		return err
	})
	g.Go(func() (err error) {
		wallets, err = s.repo.ListCategories(gctx, groupID, core.CategoryWallet)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.PeriodSummary{}, fmt.Errorf("load ledger: %w", err)
	}

	sum := core.Summarize(ledger, wallets, p)
	slog.DebugContext(ctx, "Summary computed",
		"group_id", groupID,
		"start", p.Start.String(),
		"end", p.End.String(),
		"records", len(ledger.Budgets)+len(ledger.Expenses)+len(ledger.Transfers),
		"duration_ms", time.Since(start).Milliseconds())
	return sum, nil
}

func summaryPrefix(groupID string) string {
	return "summary:" + groupID + ":"
}
