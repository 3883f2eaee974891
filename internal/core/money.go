// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals end to end; binary floats never touch a stored amount.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// amountScale is the number of fractional digits kept on parsed amounts.
const amountScale = 2

// ParseAmount converts a user supplied amount to a decimal.
//
// It accepts a dot (12.34) or comma (12,34) decimal separator, Indonesian grouping
// (1.250.000 or 1.250.000,50) and an optional "Rp" prefix. The result is rounded
// half-up to two fractional digits and must be strictly positive.
//
// Examples:
//
//	ParseAmount("12.34")       -> 12.34
//	ParseAmount("12,34")       -> 12.34
//	ParseAmount("Rp 1.250.000") -> 1250000
//	ParseAmount("12.345")      -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "IDR")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(amountScale)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// FormatRupiah renders an amount the way the dashboards show it, e.g. "Rp1.250.000" or "Rp12,50".
func FormatRupiah(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(amountScale)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "Rp" + b.String()
	if frac != "00" {
		out += "," + frac
	}
	if neg {
		return "-" + out
	}
	return out
}
