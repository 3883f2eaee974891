package services

import (
	"context"
	"errors"
	"testing"

	"dompet/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	*testEnv
	user    Registration
	gaji    core.Category
	makan   core.Category
	tunai   core.Category
	bca     core.Category
	foreign core.Category
}

func newLedgerFixture(t *testing.T) ledgerFixture {
	t.Helper()
	env := newTestEnv(t)
	user := env.register(t, "ledger@example.com")
	other := env.register(t, "other@example.com")
	return ledgerFixture{
		testEnv: env,
		user:    user,
		gaji:    env.category(t, user.User.ID, user.Group.ID, "Gaji", core.CategoryIncome),
		makan:   env.category(t, user.User.ID, user.Group.ID, "Makan", core.CategoryExpense),
		tunai:   env.category(t, user.User.ID, user.Group.ID, "Tunai", core.CategoryWallet),
		bca:     env.category(t, user.User.ID, user.Group.ID, "BCA", core.CategoryWallet),
		foreign: env.category(t, other.User.ID, other.Group.ID, "Dompet Lain", core.CategoryWallet),
	}
}

func (f ledgerFixture) seedAugust(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	uid, gid := f.user.User.ID, f.user.Group.ID

	_, err := f.ledger.CreateIncome(ctx, uid, core.Budget{
		Title: "Gaji Agustus", Amount: amount("1000000"), CategoryID: f.gaji.ID, WalletID: f.tunai.ID,
		GroupID: gid, StartDate: core.NewDate(2025, 8, 5),
	})
	require.NoError(t, err)
	_, err = f.ledger.CreateExpense(ctx, uid, core.Expense{
		Title: "Belanja", Amount: amount("250000"), CategoryID: f.makan.ID, WalletID: f.tunai.ID,
		GroupID: gid, ExpenseDate: core.NewDate(2025, 8, 10),
	})
	require.NoError(t, err)
	_, err = f.ledger.CreateTransfer(ctx, uid, core.Transfer{
		Title: "Setor", Amount: amount("100000"), FromWalletID: f.tunai.ID, ToWalletID: f.bca.ID,
		GroupID: gid, TransferDate: core.NewDate(2025, 8, 12),
	})
	require.NoError(t, err)
}

func TestLedgerSummary(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAugust(t)
	ctx := context.Background()

	sum, err := f.ledger.Summary(ctx, f.user.Group.ID, f.user.User.ID, 2025, 8)
	require.NoError(t, err)

	assert.Equal(t, "Agustus 2025", sum.Label)
	assert.Equal(t, "2025-08-01", sum.Period.Start.String())
	assert.Equal(t, "2025-08-31", sum.Period.End.String())
	assert.True(t, sum.TotalIncome.Equal(amount("1000000")))
	assert.True(t, sum.TotalExpense.Equal(amount("250000")))
	assert.True(t, sum.Net.Equal(amount("750000")))

	balances := map[string]string{}
	for _, w := range sum.Wallets {
		balances[w.Name] = w.Balance.String()
	}
	assert.Equal(t, map[string]string{"BCA": "100000", "Tunai": "650000"}, balances)

	july, err := f.ledger.Summary(ctx, f.user.Group.ID, f.user.User.ID, 2025, 7)
	require.NoError(t, err)
	assert.True(t, july.TotalIncome.IsZero())
}

func TestLedgerSummaryFollowsProfile(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAugust(t)
	ctx := context.Background()

	day, locale := 11, core.LocaleEN
	_, err := f.profiles.Update(ctx, f.user.User.ID, core.ProfilePatch{MonthStartDay: &day, Locale: &locale})
	require.NoError(t, err)

	sum, err := f.ledger.Summary(ctx, f.user.Group.ID, f.user.User.ID, 2025, 8)
	require.NoError(t, err)
	assert.Equal(t, "11 Jul - 10 Aug 2025", sum.Label)
	assert.Equal(t, 11, sum.MonthStartDay)
	assert.True(t, sum.TotalIncome.Equal(amount("1000000")))
	assert.True(t, sum.TotalExpense.Equal(amount("250000")))

	sep, err := f.ledger.Summary(ctx, f.user.Group.ID, f.user.User.ID, 2025, 9)
	require.NoError(t, err)
	assert.True(t, sep.TotalIncome.IsZero())
	for _, w := range sep.Wallets {
		if w.Name == "BCA" {
			assert.Equal(t, "100000", w.Balance.String())
		}
	}

	_, err = f.ledger.Summary(ctx, f.user.Group.ID, f.user.User.ID, 2025, 13)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestLedgerSummaryCacheInvalidatedOnWrite(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	uid, gid := f.user.User.ID, f.user.Group.ID

	before, err := f.ledger.Summary(ctx, gid, uid, 2025, 8)
	require.NoError(t, err)
	assert.True(t, before.TotalExpense.IsZero())

	e, err := f.ledger.CreateExpense(ctx, uid, core.Expense{
		Title: "Kopi", Amount: amount("18000"), CategoryID: f.makan.ID, GroupID: gid,
		ExpenseDate: core.NewDate(2025, 8, 2),
	})
	require.NoError(t, err)

	after, err := f.ledger.Summary(ctx, gid, uid, 2025, 8)
	require.NoError(t, err)
	assert.True(t, after.TotalExpense.Equal(amount("18000")))

	require.NoError(t, f.ledger.DeleteExpense(ctx, e.ID, uid))
	final, err := f.ledger.Summary(ctx, gid, uid, 2025, 8)
	require.NoError(t, err)
	assert.True(t, final.TotalExpense.IsZero())
	require.Len(t, final.Wallets, 2)

	f.category(t, uid, gid, "Mandiri", core.CategoryWallet)
	withWallet, err := f.ledger.Summary(ctx, gid, uid, 2025, 8)
	require.NoError(t, err)
	assert.Len(t, withWallet.Wallets, 3)
}

func TestLedgerReferenceChecks(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	uid, gid := f.user.User.ID, f.user.Group.ID

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "income with expense category",
			run: func() error {
				_, err := f.ledger.CreateIncome(ctx, uid, core.Budget{Title: "x", Amount: amount("1"),
					CategoryID: f.makan.ID, GroupID: gid, StartDate: core.NewDate(2025, 8, 1)})
				return err
			},
			want: core.ErrValidation,
		},
		{
			name: "expense paid from non-wallet",
			run: func() error {
				_, err := f.ledger.CreateExpense(ctx, uid, core.Expense{Title: "x", Amount: amount("1"),
					CategoryID: f.makan.ID, WalletID: f.gaji.ID, GroupID: gid, ExpenseDate: core.NewDate(2025, 8, 1)})
				return err
			},
			want: core.ErrValidation,
		},
		{
			name: "transfer to wallet of another group",
			run: func() error {
				_, err := f.ledger.CreateTransfer(ctx, uid, core.Transfer{Title: "x", Amount: amount("1"),
					FromWalletID: f.tunai.ID, ToWalletID: f.foreign.ID, GroupID: gid, TransferDate: core.NewDate(2025, 8, 1)})
				return err
			},
			want: core.ErrValidation,
		},
		{
			name: "transfer to same wallet",
			run: func() error {
				_, err := f.ledger.CreateTransfer(ctx, uid, core.Transfer{Title: "x", Amount: amount("1"),
					FromWalletID: f.tunai.ID, ToWalletID: f.tunai.ID, GroupID: gid, TransferDate: core.NewDate(2025, 8, 1)})
				return err
			},
			want: core.ErrSameWallet,
		},
		{
			name: "zero amount",
			run: func() error {
				_, err := f.ledger.CreateExpense(ctx, uid, core.Expense{Title: "x", Amount: amount("0"),
					CategoryID: f.makan.ID, GroupID: gid, ExpenseDate: core.NewDate(2025, 8, 1)})
				return err
			},
			want: core.ErrValidation,
		},
		{
			name: "non-member writes",
			run: func() error {
				other := f.register(t, "stranger@example.com")
				_, err := f.ledger.CreateExpense(ctx, other.User.ID, core.Expense{Title: "x", Amount: amount("1"),
					CategoryID: f.makan.ID, GroupID: gid, ExpenseDate: core.NewDate(2025, 8, 1)})
				return err
			},
			want: core.ErrForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
	assert.Empty(t, f.publisher.ops())
}

func TestLedgerUpdate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	uid, gid := f.user.User.ID, f.user.Group.ID

	b, err := f.ledger.CreateIncome(ctx, uid, core.Budget{
		Title: "Bonus", Amount: amount("500000"), CategoryID: f.gaji.ID, GroupID: gid,
		StartDate: core.NewDate(2025, 8, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, b.StartDate, b.EndDate)

	_, err = f.ledger.UpdateIncome(ctx, b.ID, uid, core.EntryPatch{})
	assert.ErrorIs(t, err, core.ErrValidation)
	ignored := "budgets have no description"
	_, err = f.ledger.UpdateIncome(ctx, b.ID, uid, core.EntryPatch{Description: &ignored})
	assert.ErrorIs(t, err, core.ErrValidation)
	unchanged, err := f.repo.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unchanged.Version)

	newAmount, newDate := amount("750000"), core.NewDate(2025, 8, 3)
	updated, err := f.ledger.UpdateIncome(ctx, b.ID, uid, core.EntryPatch{Amount: &newAmount, Date: &newDate, WalletID: &f.bca.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.Version)
	assert.Equal(t, "2025-08-03", updated.EndDate.String())

	stored, err := f.repo.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(newAmount))
	assert.Equal(t, f.bca.ID, stored.WalletID)
	assert.EqualValues(t, 2, stored.Version)

	e, err := f.ledger.CreateExpense(ctx, uid, core.Expense{
		Title: "Makan siang", Amount: amount("35000"), CategoryID: f.makan.ID, GroupID: gid,
		ExpenseDate: core.NewDate(2025, 8, 4),
	})
	require.NoError(t, err)
	bad := f.gaji.ID
	_, err = f.ledger.UpdateExpense(ctx, e.ID, uid, core.EntryPatch{CategoryID: &bad})
	assert.ErrorIs(t, err, core.ErrValidation)

	desc := "warung"
	ue, err := f.ledger.UpdateExpense(ctx, e.ID, uid, core.EntryPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "warung", ue.Description)

	assert.Equal(t, []string{"sync:budget", "sync:budget", "sync:expense", "sync:expense"}, f.publisher.ops())
}

func TestLedgerSharedHousehold(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	gid := f.user.Group.ID

	partner := f.register(t, "partner@example.com")
	inv, err := f.invites.Create(ctx, gid, core.RoleMember, f.user.User.ID)
	require.NoError(t, err)
	_, err = f.invites.Accept(ctx, inv.Token, partner.User.ID)
	require.NoError(t, err)

	e, err := f.ledger.CreateExpense(ctx, f.user.User.ID, core.Expense{
		Title: "Listrik", Amount: amount("400000"), CategoryID: f.makan.ID, GroupID: gid,
		ExpenseDate: core.NewDate(2025, 8, 6),
	})
	require.NoError(t, err)

	title := "Token listrik"
	_, err = f.ledger.UpdateExpense(ctx, e.ID, partner.User.ID, core.EntryPatch{Title: &title})
	require.NoError(t, err)
	require.NoError(t, f.ledger.DeleteExpense(ctx, e.ID, partner.User.ID))

	_, err = f.ledger.UpdateExpense(ctx, e.ID, partner.User.ID, core.EntryPatch{Title: &title})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedgerPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newLedgerFixture(t)
	f.publisher.err = errors.New("broker down")

	_, err := f.ledger.CreateExpense(context.Background(), f.user.User.ID, core.Expense{
		Title: "Parkir", Amount: amount("5000"), CategoryID: f.makan.ID, GroupID: f.user.Group.ID,
		ExpenseDate: core.NewDate(2025, 8, 6),
	})
	require.NoError(t, err)
	assert.Len(t, f.publisher.ops(), 1)
}

func TestCategoryDeleteInUse(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAugust(t)
	ctx := context.Background()

	err := f.categories.Delete(ctx, f.makan.ID, f.user.User.ID)
	assert.ErrorIs(t, err, core.ErrConflict)

	unused := f.category(t, f.user.User.ID, f.user.Group.ID, "Hiburan", core.CategoryExpense)
	require.NoError(t, f.categories.Delete(ctx, unused.ID, f.user.User.ID))

	wallets, err := f.categories.List(ctx, f.user.Group.ID, f.user.User.ID, core.CategoryWallet)
	require.NoError(t, err)
	assert.Len(t, wallets, 2)

	_, err = f.categories.List(ctx, f.user.Group.ID, f.user.User.ID, "Bogus")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCategoryRetypeInUse(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAugust(t)
	ctx := context.Background()
	uid, gid := f.user.User.ID, f.user.Group.ID

	expense := core.CategoryExpense
	_, err := f.categories.Update(ctx, f.bca.ID, uid, core.CategoryPatch{Type: &expense})
	assert.ErrorIs(t, err, core.ErrConflict)

	wallet := core.CategoryWallet
	_, err = f.categories.Update(ctx, f.makan.ID, uid, core.CategoryPatch{Type: &wallet})
	assert.ErrorIs(t, err, core.ErrConflict)

	name := "Bank BCA"
	renamed, err := f.categories.Update(ctx, f.bca.ID, uid, core.CategoryPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, core.CategoryWallet, renamed.Type)

	sum, err := f.ledger.Summary(ctx, gid, uid, 2025, 8)
	require.NoError(t, err)
	balances := map[string]string{}
	for _, w := range sum.Wallets {
		balances[w.Name] = w.Balance.String()
	}
	assert.Equal(t, map[string]string{"Bank BCA": "100000", "Tunai": "650000"}, balances)

	spare := f.category(t, uid, gid, "Hiburan", core.CategoryExpense)
	retyped, err := f.categories.Update(ctx, spare.ID, uid, core.CategoryPatch{Type: &wallet})
	require.NoError(t, err)
	assert.Equal(t, core.CategoryWallet, retyped.Type)
}
