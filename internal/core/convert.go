package core

// convert.go turns raw spreadsheet cells into typed book attributes.
//
// Spreadsheet data is messy:
//   - Currency symbols and thousand separators in prices
//   - Accounting format for negatives: (12.50)
//   - Excel formula prefixes (="value")
//   - Quantities exported as floats ("10.0")
//
// The Parse* functions report ok=false when the cell cannot be read as a
// number at all; callers decide whether that is fatal or coerced to zero.

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation with a short exponent.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d{1,2})?$`)

const (
	// moneyPlaces is the scale of every stored price (NUMERIC(12,2)).
	moneyPlaces = 2

	// maxExponent bounds the base-10 exponent of any accepted number.
	// Rounding or comparing a decimal costs time proportional to it.
	maxExponent = 64
)

// InRange reports whether d's exponent is small enough to round and compare
// cheaply. Every decimal from outside the process goes through it.
func InRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp >= -maxExponent && exp <= maxExponent
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// ParseDecimal converts a cell to a decimal.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, "₹", "") // Rupee
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !InRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// ParseMoney parses a price cell and rounds it to cents.
func ParseMoney(s string) (decimal.Decimal, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return decimal.Zero, false
	}
	return RoundMoney(d), true
}

// ParseQty parses a quantity cell. Fractional quantities are truncated toward
// zero and reported with exact=false.
func ParseQty(s string) (qty int64, exact bool, ok bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return 0, false, false
	}
	if d.Abs().GreaterThan(maxQtyDecimal) {
		// Out of range for the store; keep the sign so validation rejects it.
		if d.IsNegative() {
			return -1, false, true
		}
		return maxQty + 1, false, true
	}
	return d.Truncate(0).IntPart(), d.IsInteger(), true
}

// RoundMoney rounds a monetary amount to the stored scale.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// FormatMoney renders an amount with exactly two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}
