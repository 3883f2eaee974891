package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"Rp 1.250.000", "1250000", true},
		{"1.250.000,50", "1250000.5", true},
		{"IDR25000", "25000", true},
		{"9007199254740993", "9007199254740993", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3,4,5", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatRupiah(t *testing.T) {
	cases := map[string]string{
		"0":          "Rp0",
		"100":        "Rp100",
		"1250000":    "Rp1.250.000",
		"12.5":       "Rp12,50",
		"-45000":     "-Rp45.000",
		"1000000.05": "Rp1.000.000,05",
	}
	for in, want := range cases {
		if got := FormatRupiah(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatRupiah(%s) = %q, want %q", in, got, want)
		}
	}
}
