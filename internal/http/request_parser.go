package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dompet/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON object body into dst. Unknown fields are ignored; an empty
// body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.NewValidationError("body", "request body too large")
		}
		return core.NewValidationError("body", "unreadable request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.NewValidationError(typeErr.Field, "has the wrong type")
		}
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return core.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// Amount accepts a JSON number or a string such as "Rp 1.250.000".
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return core.ErrInvalidAmount
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// parseDateField decodes a YYYY-MM-DD string and reports errors against the field name.
func parseDateField(field, s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.NewValidationError(key, "must be an integer")
	}
	return n, nil
}

// actorID resolves the acting user from the body, falling back to ?userId=.
func actorID(r *http.Request, fromBody string) (string, error) {
	id := strings.TrimSpace(fromBody)
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("userId"))
	}
	if id == "" {
		return "", core.NewValidationError("userId", "is required")
	}
	return id, nil
}

// Request bodies. Only the fields listed here are ever read from a request.

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type profileUpdateRequest struct {
	FullName      *string `json:"fullName"`
	MonthStartDay *int    `json:"monthStartDay"`
	Locale        *string `json:"locale"`
}

func (p profileUpdateRequest) patch() core.ProfilePatch {
	patch := core.ProfilePatch{
		FullName:      trimmed(p.FullName),
		MonthStartDay: p.MonthStartDay,
	}
	if p.Locale != nil {
		l := core.Locale(*p.Locale)
		patch.Locale = &l
	}
	return patch
}

type groupCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
}

type groupUpdateRequest struct {
	UserID      string  `json:"userId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (g groupUpdateRequest) patch() core.GroupPatch {
	return core.GroupPatch{Name: trimmed(g.Name), Description: g.Description}
}

type inviteCreateRequest struct {
	Role      string `json:"role"`
	CreatedBy string `json:"createdBy"`
}

type inviteAcceptRequest struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type categoryRequest struct {
	UserID      string  `json:"userId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
	Type        *string `json:"type"`
}

func (c categoryRequest) category(groupID string) core.Category {
	return core.Category{
		GroupID:     groupID,
		Name:        deref(c.Name),
		Description: deref(c.Description),
		Icon:        deref(c.Icon),
		Color:       deref(c.Color),
		Type:        core.CategoryType(deref(c.Type)),
	}
}

func (c categoryRequest) patch() (core.CategoryPatch, error) {
	patch := core.CategoryPatch{
		Name:        trimmed(c.Name),
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
	}
	if c.Type != nil {
		typ, err := core.ParseCategoryType(*c.Type)
		if err != nil {
			return core.CategoryPatch{}, err
		}
		patch.Type = &typ
	}
	return patch, nil
}

// entryRequest is shared by incomes, expenses and transfers. Date falls back to the
// kind-specific field names used in responses.
type entryRequest struct {
	UserID       string  `json:"userId"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Amount       *Amount `json:"amount"`
	CategoryID   *string `json:"categoryId"`
	WalletID     *string `json:"walletId"`
	Date         *string `json:"date"`
	StartDate    *string `json:"startDate"`
	ExpenseDate  *string `json:"expenseDate"`
	TransferDate *string `json:"transferDate"`
	FromWalletID *string `json:"fromWalletId"`
	ToWalletID   *string `json:"toWalletId"`
}

func (e entryRequest) date(alt *string) *string {
	if e.Date != nil {
		return e.Date
	}
	return alt
}

func (e entryRequest) requiredDate(field string, alt *string) (core.Date, error) {
	s := e.date(alt)
	if s == nil || strings.TrimSpace(*s) == "" {
		return core.Date{}, core.NewValidationError(field, "is required")
	}
	return parseDateField(field, *s)
}

func (e entryRequest) amount() decimal.Decimal {
	if e.Amount == nil {
		return decimal.Zero
	}
	return e.Amount.Decimal
}

func (e entryRequest) budget(groupID string) (core.Budget, error) {
	d, err := e.requiredDate("date", e.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		GroupID:    groupID,
		Title:      deref(e.Title),
		Amount:     e.amount(),
		CategoryID: deref(e.CategoryID),
		WalletID:   deref(e.WalletID),
		StartDate:  d,
		EndDate:    d,
	}, nil
}

func (e entryRequest) expense(groupID string) (core.Expense, error) {
	d, err := e.requiredDate("date", e.ExpenseDate)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		GroupID:     groupID,
		Title:       deref(e.Title),
		Description: deref(e.Description),
		Amount:      e.amount(),
		CategoryID:  deref(e.CategoryID),
		WalletID:    deref(e.WalletID),
		ExpenseDate: d,
	}, nil
}

func (e entryRequest) transfer(groupID string) (core.Transfer, error) {
	d, err := e.requiredDate("date", e.TransferDate)
	if err != nil {
		return core.Transfer{}, err
	}
	return core.Transfer{
		GroupID:      groupID,
		Title:        deref(e.Title),
		Description:  deref(e.Description),
		Amount:       e.amount(),
		FromWalletID: deref(e.FromWalletID),
		ToWalletID:   deref(e.ToWalletID),
		TransferDate: d,
	}, nil
}

// patch keeps only allow-listed record fields. alt is the kind-specific date field.
func (e entryRequest) patch(alt *string) (core.EntryPatch, error) {
	patch := core.EntryPatch{
		Title:       trimmed(e.Title),
		Description: e.Description,
		CategoryID:  e.CategoryID,
		WalletID:    e.WalletID,
	}
	if e.Amount != nil {
		amount := e.Amount.Decimal
		patch.Amount = &amount
	}
	if s := e.date(alt); s != nil {
		d, err := parseDateField("date", *s)
		if err != nil {
			return core.EntryPatch{}, err
		}
		patch.Date = &d
	}
	return patch, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func requirePathValue(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.PathValue(name))
	if v == "" {
		return "", core.NewValidationError(name, "is required")
	}
	return v, nil
}
