package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ComputeMetrics derives the financial fields of a single book from its base
// attributes.
func ComputeMetrics(b BookInput) Metrics {
	qty := decimal.NewFromInt(b.Qty)
	return newMetrics(qty.Mul(b.CostPrice), qty.Mul(b.SellingPrice))
}

// newMetrics builds Metrics from cost and selling totals.
//
// Margin percent is the margin/selling ratio rounded to two places, then
// scaled to a percentage. It is nil when selling is zero.
func newMetrics(totalCost, totalSelling decimal.Decimal) Metrics {
	m := Metrics{
		TotalCost:    totalCost,
		TotalSelling: totalSelling,
		Margin:       totalSelling.Sub(totalCost),
	}
	if !totalSelling.IsZero() {
		pct := m.Margin.Div(totalSelling).Round(2).Mul(hundred)
		m.MarginPercent = &pct
	}
	return m
}

// Enrich pairs each book with its metrics, preserving order.
// Only base attributes are read, so enriching the same books again yields
// identical rows.
func Enrich(books []Book) []Row {
	if len(books) == 0 {
		return []Row{}
	}

	rows := make([]Row, len(books))
	for i, b := range books {
		rows[i] = Row{Book: b, Metrics: ComputeMetrics(b.BookInput)}
	}
	return rows
}

// Totals aggregates a set of rows.
type Totals struct {
	Count int   `json:"count"`
	Qty   int64 `json:"qty"`
	Metrics
}

// Aggregate sums quantities and money over rows. Margin percent is computed
// from the sums, not averaged, and is nil when the summed selling is zero.
func Aggregate(rows []Row) Totals {
	t := Totals{Count: len(rows)}
	if len(rows) == 0 {
		t.Metrics = newMetrics(decimal.Zero, decimal.Zero)
		return t
	}

	cost, selling := decimal.Zero, decimal.Zero
	for _, r := range rows {
		t.Qty += r.Qty
		cost = cost.Add(r.TotalCost)
		selling = selling.Add(r.TotalSelling)
	}
	t.Metrics = newMetrics(cost, selling)
	return t
}
