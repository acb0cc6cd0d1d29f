package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func input(zone, grade, sku, category string, qty int64, sell, cost string) BookInput {
	return BookInput{
		Zone: zone, Grade: grade, SKU: sku, BookName: "Book " + sku, BookCategory: category,
		Qty: qty, SellingPrice: dec(sell), CostPrice: dec(cost),
	}
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(input("North", "5", "B1", "Core", 10, "100", "60"))

	assert.True(t, m.TotalCost.Equal(dec("600")), "total cost %s", m.TotalCost)
	assert.True(t, m.TotalSelling.Equal(dec("1000")), "total selling %s", m.TotalSelling)
	assert.True(t, m.Margin.Equal(dec("400")), "margin %s", m.Margin)
	require.NotNil(t, m.MarginPercent)
	assert.True(t, m.MarginPercent.Equal(dec("40")), "margin %% %s", m.MarginPercent)
}

func TestComputeMetrics_ZeroSellingHasNoPercent(t *testing.T) {
	m := ComputeMetrics(input("North", "5", "B1", "Core", 0, "100", "60"))
	assert.True(t, m.TotalSelling.IsZero())
	assert.True(t, m.Margin.IsZero())
	assert.Nil(t, m.MarginPercent)

	m = ComputeMetrics(input("North", "5", "B1", "Core", 5, "0", "3"))
	assert.Nil(t, m.MarginPercent)
	assert.True(t, m.Margin.Equal(dec("-15")))
}

func TestComputeMetrics_PercentRounding(t *testing.T) {
	tests := []struct {
		sell, cost string
		want       string
	}{
		{"3", "2", "33"},     // 0.333.. -> 0.33
		{"3", "1", "67"},     // 0.666.. -> 0.67
		{"8", "7.96", "1"},   // 0.005 -> 0.01
		{"100", "150", "-50"},
	}
	for _, tt := range tests {
		m := ComputeMetrics(input("", "", "", "", 1, tt.sell, tt.cost))
		require.NotNil(t, m.MarginPercent)
		assert.True(t, m.MarginPercent.Equal(dec(tt.want)), "sell %s cost %s: got %s want %s",
			tt.sell, tt.cost, m.MarginPercent, tt.want)
	}
}

func TestEnrich(t *testing.T) {
	assert.Equal(t, []Row{}, Enrich(nil))
	assert.Equal(t, []Row{}, Enrich([]Book{}))

	books := []Book{
		{ID: 3, BookInput: input("North", "5", "B1", "Core", 10, "100", "60")},
		{ID: 1, BookInput: input("South", "6", "B2", "Ref", 2, "10", "4")},
	}
	rows := Enrich(books)
	require.Len(t, rows, 2)
	assert.EqualValues(t, 3, rows[0].ID)
	assert.EqualValues(t, 1, rows[1].ID)
	assert.True(t, rows[1].TotalSelling.Equal(dec("20")))

	// Enriching again from the same base attributes gives identical rows.
	again := Enrich([]Book{rows[0].Book, rows[1].Book})
	assert.Equal(t, rows, again)
}

func TestAggregate(t *testing.T) {
	empty := Aggregate(nil)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.TotalSelling.IsZero())
	assert.Nil(t, empty.MarginPercent)

	rows := Enrich([]Book{
		{ID: 1, BookInput: input("North", "5", "B1", "Core", 10, "100", "60")},
		{ID: 2, BookInput: input("North", "5", "B2", "Core", 5, "20", "5")},
		{ID: 3, BookInput: input("North", "5", "B3", "Core", 0, "50", "10")},
	})
	got := Aggregate(rows)

	assert.Equal(t, 3, got.Count)
	assert.EqualValues(t, 15, got.Qty)
	assert.True(t, got.TotalCost.Equal(dec("625")))
	assert.True(t, got.TotalSelling.Equal(dec("1100")))
	assert.True(t, got.Margin.Equal(dec("475")))
	require.NotNil(t, got.MarginPercent)
	// 475/1100 = 0.4318.. -> 0.43, computed on sums rather than averaged.
	assert.True(t, got.MarginPercent.Equal(dec("43")))
}

func TestAggregate_AllZeroSelling(t *testing.T) {
	rows := Enrich([]Book{
		{ID: 1, BookInput: input("North", "5", "B1", "Core", 0, "100", "60")},
	})
	got := Aggregate(rows)
	assert.Equal(t, 1, got.Count)
	assert.Nil(t, got.MarginPercent)
}
