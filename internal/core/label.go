package core

import (
	"fmt"
	"strings"
)

// Locale selects month names for labels.
type Locale string

const (
	LocaleID Locale = "id"
	LocaleEN Locale = "en"
)

var monthNames = map[Locale][12]string{
	LocaleID: {"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"},
	LocaleEN: {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

var monthAbbr = map[Locale][12]string{
	LocaleID: {"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"},
	LocaleEN: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// ParseLocale defaults an empty locale to Indonesian.
func ParseLocale(s string) (Locale, error) {
	switch l := Locale(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LocaleID, nil
	case LocaleID, LocaleEN:
		return l, nil
	default:
		return "", NewValidationError("locale", "must be id or en")
	}
}

func (l Locale) orDefault() Locale {
	if _, ok := monthNames[l]; ok {
		return l
	}
	return LocaleID
}

// FormatMonthLabel renders the custom month (year, month) for display.
//
// A start day of 1 yields "Agustus 2025". Any other start day yields the explicit span,
// "25 Jul - 24 Agu 2025", with the year repeated on the start side only when the span
// crosses a year boundary: "15 Des 2024 - 14 Jan 2025".
func FormatMonthLabel(year, month, monthStartDay int, locale Locale) (string, error) {
	p, err := ResolveMonthRange(year, month, monthStartDay)
	if err != nil {
		return "", err
	}
	locale = locale.orDefault()

	if monthStartDay == 1 {
		return fmt.Sprintf("%s %d", monthNames[locale][month-1], year), nil
	}

	abbr := monthAbbr[locale]
	start := fmt.Sprintf("%d %s", p.Start.Day(), abbr[p.Start.Month()-1])
	end := fmt.Sprintf("%d %s %d", p.End.Day(), abbr[p.End.Month()-1], p.End.Year())
	if p.Start.Year() != p.End.Year() {
		start = fmt.Sprintf("%s %d", start, p.Start.Year())
	}
	return start + " - " + end, nil
}
