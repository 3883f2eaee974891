package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Record is the minimal shape the aggregator needs from any dated amount.
type Record struct {
	Amount     decimal.Decimal
	CategoryID string
	Date       Date
}

// CategoryTotal is the sum and count of records for one category.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

// CategoryTotals keeps first-seen category order.
type CategoryTotals []CategoryTotal

// AggregateByCategory sums records per category. The caller filters by period and group.
func AggregateByCategory(records []Record) CategoryTotals {
	index := make(map[string]int, len(records))
	out := make(CategoryTotals, 0)
	for _, r := range records {
		i, ok := index[r.CategoryID]
		if !ok {
			i = len(out)
			index[r.CategoryID] = i
			out = append(out, CategoryTotal{CategoryID: r.CategoryID, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(r.Amount)
		out[i].Count++
	}
	return out
}

func (c CategoryTotals) Get(categoryID string) (CategoryTotal, bool) {
	for _, t := range c {
		if t.CategoryID == categoryID {
			return t, true
		}
	}
	return CategoryTotal{}, false
}

// SortedByTotal returns a copy ordered by total descending; ties keep first-seen order.
func (c CategoryTotals) SortedByTotal() CategoryTotals {
	out := make(CategoryTotals, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

func (c CategoryTotals) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range c {
		sum = sum.Add(t.Total)
	}
	return sum
}

// Ledger is a batch of group records fetched once for a period.
type Ledger struct {
	Budgets   []Budget
	Expenses  []Expense
	Transfers []Transfer
}

func (l Ledger) IncomeRecords() []Record {
	out := make([]Record, 0, len(l.Budgets))
	for _, b := range l.Budgets {
		out = append(out, Record{Amount: b.Amount, CategoryID: b.CategoryID, Date: b.StartDate})
	}
	return out
}

func (l Ledger) ExpenseRecords() []Record {
	out := make([]Record, 0, len(l.Expenses))
	for _, e := range l.Expenses {
		out = append(out, Record{Amount: e.Amount, CategoryID: e.CategoryID, Date: e.ExpenseDate})
	}
	return out
}

// WalletFlow holds the four independently summed flows of one wallet in a period.
type WalletFlow struct {
	WalletID     string          `json:"walletId"`
	Income       decimal.Decimal `json:"income"`
	Expenses     decimal.Decimal `json:"expenses"`
	TransfersIn  decimal.Decimal `json:"transfersIn"`
	TransfersOut decimal.Decimal `json:"transfersOut"`
}

// Balance is income + transfers in - expenses - transfers out.
func (f WalletFlow) Balance() decimal.Decimal {
	return f.Income.Add(f.TransfersIn).Sub(f.Expenses).Sub(f.TransfersOut)
}

// WalletBalance computes one wallet's flows over p, inclusive on both ends.
func WalletBalance(walletID string, l Ledger, p Period) WalletFlow {
	return WalletBalances([]string{walletID}, l, p)[0]
}

// WalletBalances computes flows for every wallet in a single pass over the ledger.
// The result follows the order of walletIDs; a repeated id gets the same flow in every slot.
func WalletBalances(walletIDs []string, l Ledger, p Period) []WalletFlow {
	flows := make([]WalletFlow, len(walletIDs))
	index := make(map[string]int, len(walletIDs))
	for i, id := range walletIDs {
		if _, seen := index[id]; seen {
			continue
		}
		flows[i] = WalletFlow{
			WalletID:     id,
			Income:       decimal.Zero,
			Expenses:     decimal.Zero,
			TransfersIn:  decimal.Zero,
			TransfersOut: decimal.Zero,
		}
		index[id] = i
	}

	for _, b := range l.Budgets {
		if i, ok := index[b.WalletID]; ok && b.WalletID != "" && p.Contains(b.StartDate) {
			flows[i].Income = flows[i].Income.Add(b.Amount)
		}
	}
	for _, e := range l.Expenses {
		if i, ok := index[e.WalletID]; ok && e.WalletID != "" && p.Contains(e.ExpenseDate) {
			flows[i].Expenses = flows[i].Expenses.Add(e.Amount)
		}
	}
	for _, t := range l.Transfers {
		if !p.Contains(t.TransferDate) {
			continue
		}
		if i, ok := index[t.ToWalletID]; ok {
			flows[i].TransfersIn = flows[i].TransfersIn.Add(t.Amount)
		}
		if i, ok := index[t.FromWalletID]; ok {
			flows[i].TransfersOut = flows[i].TransfersOut.Add(t.Amount)
		}
	}
	for i, id := range walletIDs {
		if first := index[id]; first != i {
			flows[i] = flows[first]
		}
	}
	return flows
}
