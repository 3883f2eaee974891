package core

import "github.com/shopspring/decimal"

// Patches carry only the allow-listed fields of an update. A nil field is left untouched.

type ProfilePatch struct {
	FullName      *string
	MonthStartDay *int
	Locale        *Locale
}

func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.MonthStartDay == nil && p.Locale == nil
}

// Apply validates every supplied field before touching dst.
func (p ProfilePatch) Apply(dst *Profile) error {
	if p.MonthStartDay != nil {
		if err := ValidateMonthStartDay(*p.MonthStartDay); err != nil {
			return err
		}
	}
	locale := dst.Locale
	if p.Locale != nil {
		l, err := ParseLocale(string(*p.Locale))
		if err != nil {
			return err
		}
		locale = l
	}

	if p.MonthStartDay != nil {
		dst.MonthStartDay = *p.MonthStartDay
	}
	if p.FullName != nil {
		dst.FullName = *p.FullName
	}
	dst.Locale = locale
	return nil
}

type GroupPatch struct {
	Name        *string
	Description *string
}

func (p GroupPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil
}

func (p GroupPatch) Apply(dst *Group) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
}

type CategoryPatch struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
	Type        *CategoryType
}

func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Icon == nil && p.Color == nil && p.Type == nil
}

func (p CategoryPatch) Apply(dst *Category) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Icon != nil {
		dst.Icon = *p.Icon
	}
	if p.Color != nil {
		dst.Color = *p.Color
	}
	if p.Type != nil {
		dst.Type = *p.Type
	}
}

// EntryPatch updates an income or expense record. Date maps to StartDate/EndDate on budgets
// and ExpenseDate on expenses. An empty WalletID detaches the record from its wallet.
type EntryPatch struct {
	Title       *string
	Description *string
	Amount      *decimal.Decimal
	CategoryID  *string
	WalletID    *string
	Date        *Date
}

func (p EntryPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Amount == nil &&
		p.CategoryID == nil && p.WalletID == nil && p.Date == nil
}

// IsEmptyForBudget reports whether the patch changes nothing a budget stores.
func (p EntryPatch) IsEmptyForBudget() bool {
	return p.Title == nil && p.Amount == nil &&
		p.CategoryID == nil && p.WalletID == nil && p.Date == nil
}

// ApplyBudget ignores Description, which budgets do not carry.
func (p EntryPatch) ApplyBudget(dst *Budget) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Amount != nil {
		dst.Amount = *p.Amount
	}
	if p.CategoryID != nil {
		dst.CategoryID = *p.CategoryID
	}
	if p.WalletID != nil {
		dst.WalletID = *p.WalletID
	}
	if p.Date != nil {
		dst.StartDate = *p.Date
		dst.EndDate = *p.Date
	}
}

func (p EntryPatch) ApplyExpense(dst *Expense) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Amount != nil {
		dst.Amount = *p.Amount
	}
	if p.CategoryID != nil {
		dst.CategoryID = *p.CategoryID
	}
	if p.WalletID != nil {
		dst.WalletID = *p.WalletID
	}
	if p.Date != nil {
		dst.ExpenseDate = *p.Date
	}
}
