package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"dompet/internal/core"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`25000`, "25000", false},
		{`"Rp 1.250.000"`, "1250000", false},
		{`"12,5"`, "12.5", false},
		{`0`, "", true},
		{`-1`, "", true},
		{`null`, "", true},
		{`"abc"`, "", true},
	}
	for _, tt := range tests {
		var a Amount
		err := a.UnmarshalJSON([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Fatalf("UnmarshalJSON(%s) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && a.String() != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %s, want %s", tt.in, a.String(), tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	newReq := func(body string) (*httptest.ResponseRecorder, *http.Request) {
		return httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}

	var got entryRequest
	w, r := newReq(`{"title":"Kopi","amount":"15000","version":9,"groupId":"other"}`)
	if err := decodeJSON(w, r, &got); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if deref(got.Title) != "Kopi" || got.Amount.String() != "15000" {
		t.Errorf("decoded %+v", got)
	}

	w, r = newReq("")
	if err := decodeJSON(w, r, &got); err != nil {
		t.Errorf("empty body should be accepted, got %v", err)
	}

	w, r = newReq(`{"amount":-3}`)
	err := decodeJSON(w, r, &got)
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("negative amount err = %v, want validation error", err)
	}

	w, r = newReq(`{"title":5}`)
	var verr *core.ValidationError
	if err := decodeJSON(w, r, &got); !errors.As(err, &verr) || verr.Field != "title" {
		t.Errorf("type mismatch err = %v, want field title", err)
	}

	w, r = newReq(`{"title":"` + strings.Repeat("x", maxBodyBytes) + `"}`)
	if err := decodeJSON(w, r, &got); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("oversized body err = %v", err)
	}
}

func TestEntryRequest_Patch(t *testing.T) {
	title := "  Makan malam "
	date := "2025-08-20"
	req := entryRequest{Title: &title, ExpenseDate: &date}

	patch, err := req.patch(req.ExpenseDate)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if *patch.Title != "Makan malam" {
		t.Errorf("title = %q, want trimmed", *patch.Title)
	}
	if patch.Date == nil || patch.Date.String() != date {
		t.Errorf("date = %v, want %s", patch.Date, date)
	}
	if patch.Amount != nil || patch.CategoryID != nil {
		t.Errorf("unset fields must stay nil: %+v", patch)
	}

	if p, _ := (entryRequest{}).patch(nil); !p.IsEmpty() {
		t.Errorf("empty request should give an empty patch")
	}

	bad := "20-08-2025"
	if _, err := (entryRequest{Date: &bad}).patch(nil); !errors.Is(err, core.ErrValidation) {
		t.Errorf("bad date err = %v", err)
	}
}

func TestActorID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?userId=u-query", nil)
	if id, _ := actorID(r, "u-body"); id != "u-body" {
		t.Errorf("body should win, got %q", id)
	}
	if id, _ := actorID(r, ""); id != "u-query" {
		t.Errorf("query fallback, got %q", id)
	}
	if _, err := actorID(httptest.NewRequest(http.MethodGet, "/", nil), " "); err == nil {
		t.Error("missing user id should fail")
	}
}

func TestQueryInt(t *testing.T) {
	q := url.Values{"year": {"2025"}, "month": {"x"}}
	if n, err := queryInt(q, "year", 0); err != nil || n != 2025 {
		t.Errorf("year = %d, %v", n, err)
	}
	if n, err := queryInt(q, "startDay", 1); err != nil || n != 1 {
		t.Errorf("default = %d, %v", n, err)
	}
	if _, err := queryInt(q, "month", 0); err == nil {
		t.Error("non-integer should fail")
	}
}
