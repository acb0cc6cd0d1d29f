package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/schoolbooks/internal/core"
)

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &core.ValidationError{Field: "id", Value: raw, Message: "must be a positive integer"}
	}
	return id, nil
}

// parseCriteria builds query criteria from URL parameters:
//
//	zone, grade, category         repeatable, exact match
//	sku, name                     case-insensitive substring
//	qty_min, qty_max              integers
//	selling_min, selling_max      decimals
//	cost_min, cost_max            decimals
//	margin_min, margin_max        decimals
func parseCriteria(q url.Values) (core.Criteria, error) {
	c := core.Criteria{
		Zones:      values(q, "zone"),
		Grades:     values(q, "grade"),
		Categories: values(q, "category"),
		SKU:        strings.TrimSpace(q.Get("sku")),
		BookName:   strings.TrimSpace(q.Get("name")),
	}

	var err error
	if c.Qty.Min, err = intParam(q, "qty_min"); err != nil {
		return core.Criteria{}, err
	}
	if c.Qty.Max, err = intParam(q, "qty_max"); err != nil {
		return core.Criteria{}, err
	}

	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"selling_min", &c.SellingPrice.Min},
		{"selling_max", &c.SellingPrice.Max},
		{"cost_min", &c.CostPrice.Min},
		{"cost_max", &c.CostPrice.Max},
		{"margin_min", &c.Margin.Min},
		{"margin_max", &c.Margin.Max},
	} {
		if *p.dst, err = decimalParam(q, p.name); err != nil {
			return core.Criteria{}, err
		}
	}
	return c, nil
}

// values returns the non-empty values of a repeatable parameter.
func values(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func intParam(q url.Values, name string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &core.ValidationError{Field: name, Value: raw, Message: "must be an integer"}
	}
	return &v, nil
}

func decimalParam(q url.Values, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &core.ValidationError{Field: name, Value: raw, Message: "must be a number"}
	}
	if !core.InRange(v) {
		return nil, &core.ValidationError{Field: name, Value: raw, Message: "is out of range"}
	}
	return &v, nil
}
