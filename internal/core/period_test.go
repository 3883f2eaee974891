package core

import (
	"errors"
	"testing"
)

func TestResolveMonthRange(t *testing.T) {
	cases := []struct {
		name        string
		year, month int
		startDay    int
		start, end  Date
	}{
		{"calendar month", 2025, 8, 1, NewDate(2025, 8, 1), NewDate(2025, 8, 31)},
		{"calendar february leap", 2024, 2, 1, NewDate(2024, 2, 1), NewDate(2024, 2, 29)},
		{"payday 25", 2025, 8, 25, NewDate(2025, 7, 25), NewDate(2025, 8, 24)},
		{"crosses year", 2025, 1, 15, NewDate(2024, 12, 15), NewDate(2025, 1, 14)},
		{"start day 2", 2025, 3, 2, NewDate(2025, 2, 2), NewDate(2025, 3, 1)},
		{"clamped to february", 2025, 3, 31, NewDate(2025, 2, 28), NewDate(2025, 3, 30)},
		{"clamped in leap year", 2024, 3, 30, NewDate(2024, 2, 29), NewDate(2024, 3, 29)},
		{"end clamped by next start", 2025, 4, 31, NewDate(2025, 3, 31), NewDate(2025, 4, 29)},
		{"december", 2025, 12, 10, NewDate(2025, 11, 10), NewDate(2025, 12, 9)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ResolveMonthRange(tc.year, tc.month, tc.startDay)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !p.Start.Equal(tc.start.Time) || !p.End.Equal(tc.end.Time) {
				t.Fatalf("got [%s, %s], want [%s, %s]", p.Start, p.End, tc.start, tc.end)
			}
		})
	}
}

func TestResolveMonthRangeRejectsBadInput(t *testing.T) {
	for _, m := range []int{0, 13, -1} {
		if _, err := ResolveMonthRange(2025, m, 1); !errors.Is(err, ErrValidation) {
			t.Fatalf("month %d: expected validation error, got %v", m, err)
		}
	}
	for _, sd := range []int{0, 32, -5} {
		if _, err := ResolveMonthRange(2025, 5, sd); !errors.Is(err, ErrValidation) {
			t.Fatalf("start day %d: expected validation error, got %v", sd, err)
		}
	}
}

// Consecutive custom months must tile the calendar for every start day.
func TestResolveMonthRangeTiles(t *testing.T) {
	for sd := 1; sd <= 31; sd++ {
		year, month := 2023, 1
		prev, err := ResolveMonthRange(year, month, sd)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 36; i++ {
			year, month = nextMonth(year, month)
			cur, err := ResolveMonthRange(year, month, sd)
			if err != nil {
				t.Fatal(err)
			}
			if !prev.End.AddDays(1).Equal(cur.Start.Time) {
				t.Fatalf("sd=%d %d-%02d: previous ends %s, current starts %s", sd, year, month, prev.End, cur.Start)
			}
			if cur.Days() < 28 || cur.Days() > 31 {
				t.Fatalf("sd=%d %d-%02d: unexpected length %d", sd, year, month, cur.Days())
			}
			prev = cur
		}
	}
}

func TestMonthOf(t *testing.T) {
	cases := []struct {
		d           Date
		startDay    int
		year, month int
	}{
		{NewDate(2025, 8, 24), 25, 2025, 8},
		{NewDate(2025, 8, 25), 25, 2025, 9},
		{NewDate(2025, 12, 20), 15, 2026, 1},
		{NewDate(2025, 12, 14), 15, 2025, 12},
		{NewDate(2025, 8, 31), 1, 2025, 8},
		{NewDate(2025, 3, 31), 31, 2025, 4},
	}
	for _, tc := range cases {
		y, m := MonthOf(tc.d, tc.startDay)
		if y != tc.year || m != tc.month {
			t.Errorf("MonthOf(%s, %d) = %d-%02d, want %d-%02d", tc.d, tc.startDay, y, m, tc.year, tc.month)
		}
	}
}

func TestMonthOfRoundTrip(t *testing.T) {
	for sd := 1; sd <= 31; sd++ {
		for d := NewDate(2024, 1, 1); d.Year() < 2026; d = d.AddDays(1) {
			y, m := MonthOf(d, sd)
			p, err := ResolveMonthRange(y, m, sd)
			if err != nil {
				t.Fatal(err)
			}
			if !p.Contains(d) {
				t.Fatalf("sd=%d: %s not inside its own month %d-%02d [%s, %s]", sd, d, y, m, p.Start, p.End)
			}
		}
	}
}

func TestPeriodContainsIsInclusive(t *testing.T) {
	p := Period{Start: NewDate(2025, 7, 25), End: NewDate(2025, 8, 24)}
	cases := map[string]bool{
		"2025-07-24": false,
		"2025-07-25": true,
		"2025-08-10": true,
		"2025-08-24": true,
		"2025-08-25": false,
	}
	for s, want := range cases {
		d, _ := ParseDate(s)
		if got := p.Contains(d); got != want {
			t.Errorf("Contains(%s) = %v, want %v", s, got, want)
		}
	}
	if p.Days() != 31 {
		t.Fatalf("expected 31 days, got %d", p.Days())
	}
}
