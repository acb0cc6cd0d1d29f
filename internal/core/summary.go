package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Dimension is a categorical attribute that summaries group by.
type Dimension string

const (
	DimensionZone     Dimension = "zone"
	DimensionGrade    Dimension = "grade"
	DimensionCategory Dimension = "category"
)

// ParseDimension validates a dimension name. Empty selects zone.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(strings.ToLower(strings.TrimSpace(s))) {
	case "", DimensionZone:
		return DimensionZone, nil
	case DimensionGrade:
		return DimensionGrade, nil
	case DimensionCategory, "book_category":
		return DimensionCategory, nil
	default:
		return "", &ValidationError{
			Field:   "by",
			Value:   s,
			Message: fmt.Sprintf("must be one of: %s, %s, %s", DimensionZone, DimensionGrade, DimensionCategory),
		}
	}
}

// key returns the value of the dimension for a row.
func (d Dimension) key(r Row) string {
	switch d {
	case DimensionGrade:
		return r.Grade
	case DimensionCategory:
		return r.BookCategory
	default:
		return r.Zone
	}
}

// GroupTotal is the aggregate of one group in a summary.
type GroupTotal struct {
	Key string `json:"key"`
	Totals
}

// Summary is chart-ready aggregated data.
type Summary struct {
	Dimension Dimension    `json:"dimension"`
	Groups    []GroupTotal `json:"groups"`
	Overall   Totals       `json:"overall"`
}

// Summarize groups rows by dimension and aggregates each group.
// Groups are sorted by key.
func Summarize(rows []Row, dim Dimension) *Summary {
	buckets := make(map[string][]Row)
	for _, r := range rows {
		k := dim.key(r)
		buckets[k] = append(buckets[k], r)
	}

	groups := make([]GroupTotal, 0, len(buckets))
	for k, members := range buckets {
		groups = append(groups, GroupTotal{Key: k, Totals: Aggregate(members)})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})

	return &Summary{
		Dimension: dim,
		Groups:    groups,
		Overall:   Aggregate(rows),
	}
}

// Share returns a group's selling total as a percentage of the overall
// selling total, rounded to two places. Zero when the overall total is zero.
func (s *Summary) Share(g GroupTotal) decimal.Decimal {
	if s.Overall.TotalSelling.IsZero() {
		return decimal.Zero
	}
	return g.TotalSelling.Div(s.Overall.TotalSelling).Mul(hundred).Round(2)
}
