package core

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAggregateByCategory(t *testing.T) {
	d := NewDate(2025, 8, 1)
	records := []Record{
		{Amount: dec("10"), CategoryID: "food", Date: d},
		{Amount: dec("5.50"), CategoryID: "fuel", Date: d},
		{Amount: dec("2.25"), CategoryID: "food", Date: d},
		{Amount: dec("40"), CategoryID: "rent", Date: d},
	}
	got := AggregateByCategory(records)

	if len(got) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(got))
	}
	order := []string{got[0].CategoryID, got[1].CategoryID, got[2].CategoryID}
	if !reflect.DeepEqual(order, []string{"food", "fuel", "rent"}) {
		t.Fatalf("expected first-seen order, got %v", order)
	}
	food, ok := got.Get("food")
	if !ok || !food.Total.Equal(dec("12.25")) || food.Count != 2 {
		t.Fatalf("unexpected food total %+v", food)
	}
	if !got.Sum().Equal(dec("57.75")) {
		t.Fatalf("sum of totals must equal sum of records, got %s", got.Sum())
	}

	sorted := got.SortedByTotal()
	if sorted[0].CategoryID != "rent" || sorted[2].CategoryID != "fuel" {
		t.Fatalf("unexpected sort order %+v", sorted)
	}
	if got[0].CategoryID != "food" {
		t.Fatal("SortedByTotal must not reorder the receiver")
	}
	if _, ok := got.Get("missing"); ok {
		t.Fatal("unknown category must not be found")
	}
}

func TestAggregateByCategoryIsDeterministic(t *testing.T) {
	d := NewDate(2025, 8, 1)
	records := []Record{
		{Amount: dec("1"), CategoryID: "a", Date: d},
		{Amount: dec("2"), CategoryID: "b", Date: d},
		{Amount: dec("3"), CategoryID: "a", Date: d},
	}
	first := AggregateByCategory(records)
	second := AggregateByCategory(records)
	if len(first) != len(second) {
		t.Fatal("repeated aggregation changed the category count")
	}
	for i := range first {
		if first[i].CategoryID != second[i].CategoryID || !first[i].Total.Equal(second[i].Total) {
			t.Fatalf("repeated aggregation differs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if got := AggregateByCategory(nil); len(got) != 0 || !got.Sum().IsZero() {
		t.Fatalf("empty input must yield an empty result, got %+v", got)
	}
}

func TestAggregateKeepsCentPrecision(t *testing.T) {
	d := NewDate(2025, 8, 1)
	var records []Record
	for i := 0; i < 10; i++ {
		records = append(records, Record{Amount: dec("0.1"), CategoryID: "x", Date: d})
	}
	got := AggregateByCategory(records)
	if !got[0].Total.Equal(dec("1")) {
		t.Fatalf("expected exactly 1, got %s", got[0].Total)
	}
}

func TestWalletBalance(t *testing.T) {
	p := Period{Start: NewDate(2025, 8, 1), End: NewDate(2025, 8, 31)}
	l := Ledger{
		Budgets: []Budget{
			{Amount: dec("100"), WalletID: "w", StartDate: NewDate(2025, 8, 1)},
			{Amount: dec("999"), WalletID: "w", StartDate: NewDate(2025, 9, 1)},
			{Amount: dec("50"), WalletID: "other", StartDate: NewDate(2025, 8, 3)},
			{Amount: dec("70"), StartDate: NewDate(2025, 8, 3)},
		},
		Expenses: []Expense{
			{Amount: dec("30"), WalletID: "w", ExpenseDate: NewDate(2025, 8, 31)},
			{Amount: dec("5"), WalletID: "w", ExpenseDate: NewDate(2025, 7, 31)},
		},
		Transfers: []Transfer{
			{Amount: dec("20"), FromWalletID: "other", ToWalletID: "w", TransferDate: NewDate(2025, 8, 15)},
			{Amount: dec("10"), FromWalletID: "w", ToWalletID: "other", TransferDate: NewDate(2025, 8, 16)},
		},
	}

	f := WalletBalance("w", l, p)
	if !f.Income.Equal(dec("100")) || !f.Expenses.Equal(dec("30")) ||
		!f.TransfersIn.Equal(dec("20")) || !f.TransfersOut.Equal(dec("10")) {
		t.Fatalf("unexpected flows %+v", f)
	}
	if !f.Balance().Equal(dec("80")) {
		t.Fatalf("expected balance 80, got %s", f.Balance())
	}

	flows := WalletBalances([]string{"other", "w", "empty"}, l, p)
	if flows[0].WalletID != "other" || !flows[0].Balance().Equal(dec("40")) {
		t.Fatalf("unexpected other wallet %+v", flows[0])
	}
	if !flows[1].Balance().Equal(f.Balance()) {
		t.Fatal("single and batch computation disagree")
	}
	if !flows[2].Balance().IsZero() {
		t.Fatalf("wallet without activity must be zero, got %s", flows[2].Balance())
	}

	dup := WalletBalances([]string{"w", "other", "w"}, l, p)
	if dup[2].WalletID != "w" || !dup[0].Balance().Equal(dec("80")) || !dup[2].Balance().Equal(dec("80")) {
		t.Fatalf("repeated wallet ids must share one flow, got %+v / %+v", dup[0], dup[2])
	}
}

// Transfers move money between wallets without changing the group total.
func TestTransfersConserveTotal(t *testing.T) {
	p := Period{Start: NewDate(2025, 8, 1), End: NewDate(2025, 8, 31)}
	l := Ledger{
		Transfers: []Transfer{
			{Amount: dec("20"), FromWalletID: "a", ToWalletID: "b", TransferDate: NewDate(2025, 8, 2)},
			{Amount: dec("7.5"), FromWalletID: "b", ToWalletID: "c", TransferDate: NewDate(2025, 8, 3)},
			{Amount: dec("3"), FromWalletID: "c", ToWalletID: "a", TransferDate: NewDate(2025, 8, 4)},
		},
	}
	total := decimal.Zero
	for _, f := range WalletBalances([]string{"a", "b", "c"}, l, p) {
		total = total.Add(f.Balance())
	}
	if !total.IsZero() {
		t.Fatalf("transfers must net to zero across wallets, got %s", total)
	}
}

func TestSummarize(t *testing.T) {
	p := Period{Start: NewDate(2025, 7, 25), End: NewDate(2025, 8, 24)}
	l := Ledger{
		Budgets: []Budget{
			{Amount: dec("5000000"), CategoryID: "gaji", WalletID: "bca", StartDate: NewDate(2025, 7, 25)},
			{Amount: dec("1"), CategoryID: "gaji", WalletID: "bca", StartDate: NewDate(2025, 8, 25)},
		},
		Expenses: []Expense{
			{Amount: dec("150000"), CategoryID: "makan", WalletID: "bca", ExpenseDate: NewDate(2025, 8, 1)},
			{Amount: dec("2000000"), CategoryID: "sewa", WalletID: "bca", ExpenseDate: NewDate(2025, 8, 24)},
			{Amount: dec("50000"), CategoryID: "makan", ExpenseDate: NewDate(2025, 8, 2)},
		},
	}
	wallets := []Category{{ID: "bca", Name: "BCA", Type: CategoryWallet}}

	s := Summarize(l, wallets, p)
	if !s.TotalIncome.Equal(dec("5000000")) || !s.TotalExpense.Equal(dec("2200000")) {
		t.Fatalf("unexpected totals %s / %s", s.TotalIncome, s.TotalExpense)
	}
	if !s.Net.Equal(dec("2800000")) {
		t.Fatalf("unexpected net %s", s.Net)
	}
	if s.ExpenseByCategory[0].CategoryID != "sewa" {
		t.Fatalf("expense categories must be sorted by total, got %+v", s.ExpenseByCategory)
	}
	if len(s.Wallets) != 1 || s.Wallets[0].Name != "BCA" || !s.Wallets[0].Balance.Equal(dec("2850000")) {
		t.Fatalf("unexpected wallet summary %+v", s.Wallets)
	}
}
