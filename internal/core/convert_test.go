package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  North  ", "North"},
		{`="B-0012"`, "B-0012"},
		{"=42", "42"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDecimal Tests
// ----------------------------------------------------------------------------

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string
	}{
		{"integer", "123", true, "123"},
		{"decimal", "123.45", true, "123.45"},
		{"leading point", ".99", true, "0.99"},
		{"negative", "-4", true, "-4"},
		{"dollar and commas", "$1,234.50", true, "1234.5"},
		{"euro", "€12", true, "12"},
		{"pound", "£7.25", true, "7.25"},
		{"rupee", "₹250", true, "250"},
		{"accounting negative", "(12.50)", true, "-12.5"},
		{"scientific", "1.5e2", true, "150"},
		{"negative exponent", "25e-2", true, "0.25"},
		{"three digit exponent", "1e100", false, "0"},
		{"huge exponent", "1e20000000", false, "0"},
		{"too many fraction digits", "0." + strings.Repeat("0", 70) + "1", false, "0"},
		{"excel formula", `="100"`, true, "100"},
		{"whitespace", "  8  ", true, "8"},
		{"empty", "", false, "0"},
		{"text", "abc", false, "0"},
		{"two points", "1.2.3", false, "0"},
		{"just symbol", "$", false, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDecimal(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDecimal(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		name string
		d    decimal.Decimal
		want bool
	}{
		{"zero", decimal.Zero, true},
		{"cents", decimal.New(1999, -2), true},
		{"largest exponent", decimal.New(1, maxExponent), true},
		{"smallest exponent", decimal.New(1, -maxExponent), true},
		{"huge", decimal.New(1, 20000000), false},
		{"huge negative", decimal.New(-1, 20000000), false},
		{"tiny", decimal.New(1, -20000000), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InRange(tt.d); got != tt.want {
				t.Errorf("InRange(1e%d) = %v, want %v", tt.d.Exponent(), got, tt.want)
			}
		})
	}
}

func TestParseMoney_RoundsToCents(t *testing.T) {
	got, ok := ParseMoney("10.005")
	if !ok {
		t.Fatal("expected ok")
	}
	if got.String() != "10.01" {
		t.Errorf("ParseMoney = %s, want 10.01", got)
	}
}

// ----------------------------------------------------------------------------
// ParseQty Tests
// ----------------------------------------------------------------------------

func TestParseQty(t *testing.T) {
	tests := []struct {
		input     string
		wantQty   int64
		wantExact bool
		wantOK    bool
	}{
		{"10", 10, true, true},
		{"10.0", 10, true, true},
		{"7.9", 7, false, true},
		{"-2.5", -2, false, true},
		{"0", 0, true, true},
		{"", 0, false, false},
		{"ten", 0, false, false},
		{"99999999999", maxQty + 1, false, true},
		{"-99999999999", -1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			qty, exact, ok := ParseQty(tt.input)
			if qty != tt.wantQty || exact != tt.wantExact || ok != tt.wantOK {
				t.Errorf("ParseQty(%q) = (%d, %v, %v), want (%d, %v, %v)",
					tt.input, qty, exact, ok, tt.wantQty, tt.wantExact, tt.wantOK)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":      "0.00",
		"12.5":   "12.50",
		"1000":   "1000.00",
		"-3.456": "-3.46",
	}
	for in, want := range tests {
		if got := FormatMoney(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatMoney(%s) = %q, want %q", in, got, want)
		}
	}
}
