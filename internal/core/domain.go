package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryIncome  CategoryType = "Pemasukan"
	CategoryExpense CategoryType = "Pengeluaran"
	CategoryWallet  CategoryType = "Dompet"
)

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

const (
	EntryBudget   EntryKind = "budget"
	EntryExpense  EntryKind = "expense"
	EntryTransfer EntryKind = "transfer"
)

type (
	CategoryType string

	Role string

	EntryKind string

	Date struct {
		time.Time
	}

	User struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		FullName  string    `json:"fullName"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Profile struct {
		ID            string    `json:"id"`
		FullName      string    `json:"fullName"`
		Email         string    `json:"email"`
		MonthStartDay int       `json:"monthStartDay"`
		Locale        Locale    `json:"locale"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	Group struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		CreatedBy   string    `json:"createdBy"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// Membership is unique per (UserID, GroupID).
	Membership struct {
		UserID   string    `json:"userId"`
		GroupID  string    `json:"groupId"`
		Role     Role      `json:"role"`
		JoinedAt time.Time `json:"joinedAt"`
	}

	// Member is a membership joined with the member's profile for listings.
	Member struct {
		Membership
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}

	Category struct {
		ID          string       `json:"id"`
		Name        string       `json:"name"`
		Description string       `json:"description"`
		Icon        string       `json:"icon"`
		Color       string       `json:"color"`
		Type        CategoryType `json:"type"`
		GroupID     string       `json:"groupId"`
		CreatedBy   string       `json:"createdBy"`
		CreatedAt   time.Time    `json:"createdAt"`
		UpdatedAt   time.Time    `json:"updatedAt"`
	}

	// Budget is a single-date inflow. StartDate and EndDate are equal in practice.
	Budget struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Amount     decimal.Decimal `json:"amount"`
		CategoryID string          `json:"categoryId"`
		WalletID   string          `json:"walletId,omitempty"`
		GroupID    string          `json:"groupId"`
		StartDate  Date            `json:"startDate"`
		EndDate    Date            `json:"endDate"`
		CreatedBy  string          `json:"createdBy"`
		Version    int64           `json:"version"`
		CreatedAt  time.Time       `json:"createdAt"`
		UpdatedAt  time.Time       `json:"updatedAt"`
	}

	Expense struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		CategoryID  string          `json:"categoryId"`
		WalletID    string          `json:"walletId,omitempty"`
		GroupID     string          `json:"groupId"`
		ExpenseDate Date            `json:"expenseDate"`
		CreatedBy   string          `json:"createdBy"`
		Version     int64           `json:"version"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// Transfer moves money between two wallet categories of the same group.
	Transfer struct {
		ID           string          `json:"id"`
		Title        string          `json:"title"`
		Description  string          `json:"description"`
		Amount       decimal.Decimal `json:"amount"`
		FromWalletID string          `json:"fromWalletId"`
		ToWalletID   string          `json:"toWalletId"`
		GroupID      string          `json:"groupId"`
		TransferDate Date            `json:"transferDate"`
		CreatedBy    string          `json:"createdBy"`
		Version      int64           `json:"version"`
		CreatedAt    time.Time       `json:"createdAt"`
	}

	// LedgerEntry is the flattened view of a budget, expense or transfer used for exports.
	LedgerEntry struct {
		Kind         EntryKind       `json:"kind"`
		ID           string          `json:"id"`
		GroupID      string          `json:"groupId"`
		Title        string          `json:"title"`
		Description  string          `json:"description,omitempty"`
		Amount       decimal.Decimal `json:"amount"`
		Date         Date            `json:"date"`
		CategoryID   string          `json:"categoryId,omitempty"`
		WalletID     string          `json:"walletId,omitempty"`
		FromWalletID string          `json:"fromWalletId,omitempty"`
		ToWalletID   string          `json:"toWalletId,omitempty"`
		Version      int64           `json:"version"`
	}
)

func ParseCategoryType(s string) (CategoryType, error) {
	switch t := CategoryType(strings.TrimSpace(s)); t {
	case CategoryIncome, CategoryExpense, CategoryWallet:
		return t, nil
	default:
		return "", NewValidationError("type", "must be one of Pemasukan, Pengeluaran, Dompet")
	}
}

func (t CategoryType) IsWallet() bool {
	return t == CategoryWallet
}

// ParseRole defaults an empty role to member.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RoleMember, nil
	case RoleAdmin, RoleMember:
		return r, nil
	default:
		return "", NewValidationError("role", "must be admin or member")
	}
}

// CanManageGroup reports whether the role may edit group metadata and create invites.
func (r Role) CanManageGroup() bool {
	return r == RoleAdmin
}

func (g Group) Validate() error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return NewValidationError("name", "is required")
	}
	if len(name) > 100 {
		return NewValidationError("name", "too long (max 100 characters)")
	}
	if len(g.Description) > 500 {
		return NewValidationError("description", "too long (max 500 characters)")
	}
	if strings.TrimSpace(g.CreatedBy) == "" {
		return NewValidationError("createdBy", "is required")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if len(c.Name) > 100 {
		return NewValidationError("name", "too long (max 100 characters)")
	}
	if _, err := ParseCategoryType(string(c.Type)); err != nil {
		return err
	}
	if c.GroupID == "" {
		return NewValidationError("groupId", "is required")
	}
	return nil
}

func (b Budget) Validate() error {
	if err := validateTitle(b.Title); err != nil {
		return err
	}
	if err := ValidateAmount(b.Amount); err != nil {
		return err
	}
	if b.CategoryID == "" {
		return NewValidationError("categoryId", "is required")
	}
	if b.GroupID == "" {
		return NewValidationError("groupId", "is required")
	}
	if err := b.StartDate.Validate(); err != nil {
		return NewValidationError("startDate", err.Error())
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate.Time) {
		return NewValidationError("endDate", "must not be before start date")
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateTitle(e.Title); err != nil {
		return err
	}
	if len(e.Description) > 500 {
		return NewValidationError("description", "too long (max 500 characters)")
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if e.CategoryID == "" {
		return NewValidationError("categoryId", "is required")
	}
	if e.GroupID == "" {
		return NewValidationError("groupId", "is required")
	}
	if err := e.ExpenseDate.Validate(); err != nil {
		return NewValidationError("expenseDate", err.Error())
	}
	return nil
}

func (t Transfer) Validate() error {
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.FromWalletID == "" || t.ToWalletID == "" {
		return NewValidationError("wallet", "both fromWalletId and toWalletId are required")
	}
	if t.FromWalletID == t.ToWalletID {
		return ErrSameWallet
	}
	if t.GroupID == "" {
		return NewValidationError("groupId", "is required")
	}
	if err := t.TransferDate.Validate(); err != nil {
		return NewValidationError("transferDate", err.Error())
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewValidationError("title", "is required")
	}
	if len(title) > 200 {
		return NewValidationError("title", "too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Entry() LedgerEntry {
	return LedgerEntry{
		Kind:       EntryBudget,
		ID:         b.ID,
		GroupID:    b.GroupID,
		Title:      b.Title,
		Amount:     b.Amount,
		Date:       b.StartDate,
		CategoryID: b.CategoryID,
		WalletID:   b.WalletID,
		Version:    b.Version,
	}
}

func (e Expense) Entry() LedgerEntry {
	return LedgerEntry{
		Kind:        EntryExpense,
		ID:          e.ID,
		GroupID:     e.GroupID,
		Title:       e.Title,
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.ExpenseDate,
		CategoryID:  e.CategoryID,
		WalletID:    e.WalletID,
		Version:     e.Version,
	}
}

func (t Transfer) Entry() LedgerEntry {
	return LedgerEntry{
		Kind:         EntryTransfer,
		ID:           t.ID,
		GroupID:      t.GroupID,
		Title:        t.Title,
		Description:  t.Description,
		Amount:       t.Amount,
		Date:         t.TransferDate,
		FromWalletID: t.FromWalletID,
		ToWalletID:   t.ToWalletID,
		Version:      t.Version,
	}
}

func ParseEntryKind(s string) (EntryKind, error) {
	switch k := EntryKind(s); k {
	case EntryBudget, EntryExpense, EntryTransfer:
		return k, nil
	default:
		return "", NewValidationError("kind", "unknown ledger entry kind "+s)
	}
}
