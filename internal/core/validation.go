package core

// validation.go checks records before they reach the store.
//
// Validation happens at two levels:
//  1. Batch header validation: all required columns must be present (SchemaError)
//  2. Record validation: field ranges and lengths (ValidationError)
//
// NormalizeRow sits between the two: it turns a raw spreadsheet row into a
// BookInput, coercing unreadable numbers to zero and reporting which fields
// were coerced.

import (
	"errors"
	"fmt"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

const (
	// maxQty is the largest quantity the INTEGER column holds.
	maxQty = math.MaxInt32

	// maxTextLength bounds free-text attributes (in runes).
	maxTextLength = 255
)

var (
	maxQtyDecimal = decimal.NewFromInt(maxQty)

	// maxPrice is the first value that no longer fits NUMERIC(12,2).
	maxPrice = decimal.New(1, 10)
)

// Validate checks a BookInput against the record rules: non-negative
// quantity and prices, prices that fit the stored precision, bounded text.
func (in BookInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Zone, validation.RuneLength(0, maxTextLength)),
		validation.Field(&in.Grade, validation.RuneLength(0, maxTextLength)),
		validation.Field(&in.SKU, validation.RuneLength(0, maxTextLength)),
		validation.Field(&in.BookName, validation.RuneLength(0, maxTextLength)),
		validation.Field(&in.BookCategory, validation.RuneLength(0, maxTextLength)),
		validation.Field(&in.Qty,
			validation.Min(int64(0)).Error("must not be negative"),
			validation.Max(int64(maxQty)).Error(fmt.Sprintf("must be at most %d", maxQty)),
		),
		validation.Field(&in.SellingPrice, validation.By(priceRule)),
		validation.Field(&in.CostPrice, validation.By(priceRule)),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) && len(fieldErrs) == 1 {
		for field, ferr := range fieldErrs {
			return &ValidationError{Field: field, Message: ferr.Error(), Err: err}
		}
	}
	return &ValidationError{Message: err.Error(), Err: err}
}

// priceRule rejects negative prices and prices beyond NUMERIC(12,2).
func priceRule(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal amount")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	if d.GreaterThanOrEqual(maxPrice) {
		return errors.New("is too large")
	}
	return nil
}

// columnIndex maps lowercased header names to the header as written in the file.
type columnIndex map[string]string

// makeColumnIndex builds a case-insensitive lookup over a header row.
func makeColumnIndex(columns []string) columnIndex {
	idx := make(columnIndex, len(columns))
	for _, c := range columns {
		key := strings.ToLower(CleanCell(c))
		if _, dup := idx[key]; !dup {
			idx[key] = c
		}
	}
	return idx
}

// CheckColumns verifies that a batch header carries every import column.
// Matching ignores case and surrounding whitespace.
func CheckColumns(columns []string) error {
	idx := makeColumnIndex(columns)
	var missing []string
	for _, col := range ImportColumns {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// NormalizeRow converts one raw spreadsheet row into a BookInput.
//
// Every import column must be present as a key (any case); a missing key is a
// ValidationError for this row. Text cells are cleaned but may be empty.
// Numeric cells that are empty or unreadable become zero and are listed in
// coerced, as are fractional quantities (truncated toward zero). Readable
// negative numbers fail validation rather than being coerced.
func NormalizeRow(raw map[string]string) (in BookInput, coerced []string, err error) {
	lookup := make(map[string]string, len(raw))
	for k, v := range raw {
		lookup[strings.ToLower(CleanCell(k))] = v
	}

	var absent []string
	cell := func(col string) string {
		v, ok := lookup[strings.ToLower(col)]
		if !ok {
			absent = append(absent, col)
		}
		return v
	}

	in.Zone = CleanCell(cell(ColZone))
	in.Grade = CleanCell(cell(ColGrade))
	in.SKU = CleanCell(cell(ColSKU))
	in.BookName = CleanCell(cell(ColBookName))
	in.BookCategory = CleanCell(cell(ColBookCategory))

	qty, exact, ok := ParseQty(cell(ColQty))
	if !ok || !exact {
		coerced = append(coerced, ColQty)
	}
	in.Qty = qty

	var price decimal.Decimal
	if price, ok = ParseMoney(cell(ColSellingPrice)); !ok {
		coerced = append(coerced, ColSellingPrice)
	}
	in.SellingPrice = price

	if price, ok = ParseMoney(cell(ColCostPrice)); !ok {
		coerced = append(coerced, ColCostPrice)
	}
	in.CostPrice = price

	if len(absent) > 0 {
		return BookInput{}, nil, &ValidationError{
			Message: "missing fields: " + strings.Join(absent, ", "),
		}
	}

	if err := in.Validate(); err != nil {
		return BookInput{}, nil, err
	}
	return in, coerced, nil
}
