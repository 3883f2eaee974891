package http

import (
	"context"
	"net/http"

	"dompet/internal/core"
)

// Categories

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := s.groupAndActor(w, r, "")
	if !ok {
		return
	}
	typ := core.CategoryType(r.URL.Query().Get("type"))
	categories, err := s.svc.Categories.List(r.Context(), groupID, userID, typ)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("categories", categories).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	groupID, userID, ok := s.groupAndActor(w, r, req.UserID)
	if !ok {
		return
	}

	category, err := s.svc.Categories.Create(r.Context(), userID, req.category(groupID))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Set("category", category).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	id, userID, ok := idAndActor(w, r, req.UserID)
	if !ok {
		return
	}
	patch, err := req.patch()
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	category, err := s.svc.Categories.Update(r.Context(), id, userID, patch)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("category", category).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.svc.Categories.Delete)
}

// Incomes

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	groupID, userID, ok := s.groupAndActor(w, r, req.UserID)
	if !ok {
		return
	}
	b, err := req.budget(groupID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	b, err = s.svc.Ledger.CreateIncome(r.Context(), userID, b)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Set("budget", b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	id, userID, ok := idAndActor(w, r, req.UserID)
	if !ok {
		return
	}
	patch, err := req.patch(req.StartDate)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	b, err := s.svc.Ledger.UpdateIncome(r.Context(), id, userID, patch)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("budget", b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.svc.Ledger.DeleteIncome)
}

// Expenses

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	groupID, userID, ok := s.groupAndActor(w, r, req.UserID)
	if !ok {
		return
	}
	e, err := req.expense(groupID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	e, err = s.svc.Ledger.CreateExpense(r.Context(), userID, e)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Set("expense", e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	id, userID, ok := idAndActor(w, r, req.UserID)
	if !ok {
		return
	}
	patch, err := req.patch(req.ExpenseDate)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	e, err := s.svc.Ledger.UpdateExpense(r.Context(), id, userID, patch)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("expense", e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.svc.Ledger.DeleteExpense)
}

// Transfers

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	groupID, userID, ok := s.groupAndActor(w, r, req.UserID)
	if !ok {
		return
	}
	t, err := req.transfer(groupID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	t, err = s.svc.Ledger.CreateTransfer(r.Context(), userID, t)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Set("transfer", t).Write(w)
}

func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.svc.Ledger.DeleteTransfer)
}

// handleDelete serves DELETE /api/<kind>/{id}; the acting user comes from the body or ?userId=.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id, userID string) error) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	id, userID, ok := idAndActor(w, r, req.UserID)
	if !ok {
		return
	}
	if err := del(r.Context(), id, userID); err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Write(w)
}

func idAndActor(w http.ResponseWriter, r *http.Request, bodyUserID string) (id, userID string, ok bool) {
	id, err := requirePathValue(r, "id")
	if err != nil {
		ServiceError(w, r, err)
		return "", "", false
	}
	userID, err = actorID(r, bodyUserID)
	if err != nil {
		ServiceError(w, r, err)
		return "", "", false
	}
	return id, userID, true
}

// Reports

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := s.groupAndActor(w, r, "")
	if !ok {
		return
	}
	year, month, err := s.summaryMonth(r, userID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	summary, err := s.svc.Ledger.Summary(r.Context(), groupID, userID, year, month)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("summary", summary).Write(w)
}

// summaryMonth reads ?year=&month=. When both are absent it picks the caller's custom month
// containing today.
func (s *Server) summaryMonth(r *http.Request, userID string) (year, month int, err error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		profile, err := s.svc.Profiles.Get(r.Context(), userID)
		if err != nil {
			return 0, 0, err
		}
		year, month = core.MonthOf(core.DateOf(s.now()), profile.MonthStartDay)
		return year, month, nil
	}

	if year, err = queryInt(q, "year", 0); err != nil {
		return 0, 0, err
	}
	if month, err = queryInt(q, "month", 0); err != nil {
		return 0, 0, err
	}
	if year == 0 {
		return 0, 0, core.NewValidationError("year", "is required")
	}
	return year, month, nil
}

func handleMonthRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := queryInt(q, "year", 0)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	if year == 0 {
		ServiceError(w, r, core.NewValidationError("year", "is required"))
		return
	}
	month, err := queryInt(q, "month", 0)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	startDay, err := queryInt(q, "startDay", 1)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	locale, err := core.ParseLocale(q.Get("locale"))
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	period, err := core.ResolveMonthRange(year, month, startDay)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	label, err := core.FormatMonthLabel(year, month, startDay, locale)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	NewJSONResponse().
		Set("start", period.Start).
		Set("end", period.End).
		Set("days", period.Days()).
		Set("label", label).
		Write(w)
}
