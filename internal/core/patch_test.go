package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

func TestEntryPatch(t *testing.T) {
	if !(EntryPatch{}).IsEmpty() {
		t.Fatal("zero patch must be empty")
	}

	e := Expense{Title: "Bensin", Amount: decimal.NewFromInt(20000), CategoryID: "c1", WalletID: "w1", ExpenseDate: NewDate(2025, 8, 1)}
	p := EntryPatch{Amount: ptr(decimal.NewFromInt(25000)), WalletID: ptr(""), Date: ptr(NewDate(2025, 8, 2))}
	if p.IsEmpty() {
		t.Fatal("patch with fields must not be empty")
	}
	p.ApplyExpense(&e)
	if e.Title != "Bensin" || !e.Amount.Equal(decimal.NewFromInt(25000)) || e.WalletID != "" || e.ExpenseDate.Day() != 2 {
		t.Fatalf("unexpected expense after patch %+v", e)
	}

	if !(EntryPatch{Description: ptr("ignored")}).IsEmptyForBudget() {
		t.Fatal("description-only patch must be empty for a budget")
	}
	if (EntryPatch{Title: ptr("Gaji")}).IsEmptyForBudget() {
		t.Fatal("title patch must not be empty for a budget")
	}

	b := Budget{Title: "Gaji", StartDate: NewDate(2025, 8, 1), EndDate: NewDate(2025, 8, 1)}
	EntryPatch{Description: ptr("ignored"), Date: ptr(NewDate(2025, 8, 25))}.ApplyBudget(&b)
	if !b.StartDate.Equal(b.EndDate.Time) || b.StartDate.Day() != 25 {
		t.Fatalf("budget dates must move together, got %s / %s", b.StartDate, b.EndDate)
	}
}

func TestProfilePatch(t *testing.T) {
	prof := Profile{MonthStartDay: 1, Locale: LocaleID}
	if err := (ProfilePatch{MonthStartDay: ptr(25), Locale: ptr(LocaleEN)}).Apply(&prof); err != nil {
		t.Fatal(err)
	}
	if prof.MonthStartDay != 25 || prof.Locale != LocaleEN {
		t.Fatalf("unexpected profile %+v", prof)
	}
	if err := (ProfilePatch{MonthStartDay: ptr(32)}).Apply(&prof); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if prof.MonthStartDay != 25 {
		t.Fatal("rejected patch must not modify the profile")
	}
}
