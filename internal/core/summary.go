package core

import "github.com/shopspring/decimal"

// WalletSummary is a wallet category with its flows and balance for a period.
type WalletSummary struct {
	WalletFlow
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// PeriodSummary is the dashboard view of one group for one custom month.
type PeriodSummary struct {
	GroupID           string          `json:"groupId"`
	Year              int             `json:"year"`
	Month             int             `json:"month"` // 1-12
	MonthStartDay     int             `json:"monthStartDay"`
	Label             string          `json:"label"`
	Period            Period          `json:"period"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpense      decimal.Decimal `json:"totalExpense"`
	Net               decimal.Decimal `json:"net"`
	IncomeByCategory  CategoryTotals  `json:"incomeByCategory"`
	ExpenseByCategory CategoryTotals  `json:"expenseByCategory"`
	Wallets           []WalletSummary `json:"wallets"`
}

// Summarize aggregates a ledger already restricted to p and to one group.
func Summarize(l Ledger, wallets []Category, p Period) PeriodSummary {
	income := AggregateByCategory(filterRecords(l.IncomeRecords(), p))
	expense := AggregateByCategory(filterRecords(l.ExpenseRecords(), p))

	ids := make([]string, len(wallets))
	for i, w := range wallets {
		ids[i] = w.ID
	}
	flows := WalletBalances(ids, l, p)
	ws := make([]WalletSummary, len(flows))
	for i, f := range flows {
		ws[i] = WalletSummary{WalletFlow: f, Name: wallets[i].Name, Balance: f.Balance()}
	}

	s := PeriodSummary{
		Period:            p,
		TotalIncome:       income.Sum(),
		TotalExpense:      expense.Sum(),
		IncomeByCategory:  income.SortedByTotal(),
		ExpenseByCategory: expense.SortedByTotal(),
		Wallets:           ws,
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

func filterRecords(records []Record, p Period) []Record {
	out := records[:0:0]
	for _, r := range records {
		if p.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}
