package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// IntRange is an inclusive integer range. A nil bound is open.
type IntRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// Contains reports whether v lies within the range.
func (r IntRange) Contains(v int64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// IsOpen reports whether neither bound is set.
func (r IntRange) IsOpen() bool {
	return r.Min == nil && r.Max == nil
}

// DecimalRange is an inclusive decimal range. A nil bound is open.
type DecimalRange struct {
	Min *decimal.Decimal `json:"min,omitempty"`
	Max *decimal.Decimal `json:"max,omitempty"`
}

// Contains reports whether v lies within the range.
func (r DecimalRange) Contains(v decimal.Decimal) bool {
	if r.Min != nil && v.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && v.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// IsOpen reports whether neither bound is set.
func (r DecimalRange) IsOpen() bool {
	return r.Min == nil && r.Max == nil
}

// Criteria is a set of optional predicates combined with AND.
//
// Empty membership sets and empty substrings apply no restriction.
// Substring matches ignore case.
type Criteria struct {
	Zones      []string `json:"zones,omitempty"`
	Grades     []string `json:"grades,omitempty"`
	Categories []string `json:"categories,omitempty"`

	SKU      string `json:"sku,omitempty"`
	BookName string `json:"book_name,omitempty"`

	Qty          IntRange     `json:"qty"`
	SellingPrice DecimalRange `json:"selling_price"`
	CostPrice    DecimalRange `json:"cost_price"`

	// Margin filters on the derived margin of each row.
	Margin DecimalRange `json:"margin"`
}

// Validate rejects decimal bounds whose exponent is outside InRange.
func (c Criteria) Validate() error {
	for _, r := range []struct {
		field string
		rng   DecimalRange
	}{
		{"selling_price", c.SellingPrice},
		{"cost_price", c.CostPrice},
		{"margin", c.Margin},
	} {
		for _, d := range []*decimal.Decimal{r.rng.Min, r.rng.Max} {
			if d != nil && !InRange(*d) {
				return &ValidationError{Field: r.field, Message: "bound is out of range"}
			}
		}
	}
	return nil
}

// IsEmpty reports whether the criteria restrict nothing.
func (c Criteria) IsEmpty() bool {
	return len(c.Zones) == 0 && len(c.Grades) == 0 && len(c.Categories) == 0 &&
		c.SKU == "" && c.BookName == "" &&
		c.Qty.IsOpen() && c.SellingPrice.IsOpen() && c.CostPrice.IsOpen() && c.Margin.IsOpen()
}

// Matches reports whether a row satisfies every supplied predicate.
func (c Criteria) Matches(r Row) bool {
	if !inSet(c.Zones, r.Zone) || !inSet(c.Grades, r.Grade) || !inSet(c.Categories, r.BookCategory) {
		return false
	}
	if !containsFold(r.SKU, c.SKU) || !containsFold(r.BookName, c.BookName) {
		return false
	}
	return c.Qty.Contains(r.Qty) &&
		c.SellingPrice.Contains(r.SellingPrice) &&
		c.CostPrice.Contains(r.CostPrice) &&
		c.Margin.Contains(r.Margin)
}

// Filter returns the rows matching c, in their original relative order.
// The input slice is not modified. Criteria from outside the process must
// pass Validate first.
func Filter(rows []Row, c Criteria) []Row {
	out := make([]Row, 0, len(rows))
	if c.IsEmpty() {
		return append(out, rows...)
	}
	for _, r := range rows {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// inSet treats an empty set as "no restriction".
func inSet(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// containsFold is a case-insensitive substring test; an empty needle matches.
func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// FilterOptions lists the distinct categorical values present in a set of
// rows, for populating multi-select controls.
type FilterOptions struct {
	Zones      []string `json:"zones"`
	Grades     []string `json:"grades"`
	Categories []string `json:"categories"`
}

// DistinctValues collects sorted distinct zones, grades and categories.
func DistinctValues(rows []Row) FilterOptions {
	zones := map[string]struct{}{}
	grades := map[string]struct{}{}
	cats := map[string]struct{}{}
	for _, r := range rows {
		zones[r.Zone] = struct{}{}
		grades[r.Grade] = struct{}{}
		cats[r.BookCategory] = struct{}{}
	}
	return FilterOptions{
		Zones:      sortedKeys(zones),
		Grades:     sortedKeys(grades),
		Categories: sortedKeys(cats),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
