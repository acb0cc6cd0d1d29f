package core

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseMoney benchmarks price cell parsing, the hot path of imports.
func BenchmarkParseMoney(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"$1,234.56",
		"(123.45)",      // Accounting negative
		"  999.99  ",    // Whitespace
		"\u20ac1234.56", // Euro
		"=\"42.10\"",    // Excel formula prefix
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseMoney(tc)
		}
	}
}

func BenchmarkNormalizeRow(b *testing.B) {
	raw := map[string]string{
		"zone": "North", "grade": "5", "sku": "MATH-5", "book name": "Algebra",
		"book category": "Text", "qty": "10.0", "selling price": "$100", "cost price": "60",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := NormalizeRow(raw); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Query Benchmarks
// ============================================================================

// benchRows builds n enriched rows spread over a few zones and grades.
func benchRows(n int) []Row {
	books := make([]Book, n)
	for i := range books {
		books[i] = Book{
			ID: int64(i + 1),
			BookInput: BookInput{
				Zone:         fmt.Sprintf("Zone %d", i%4),
				Grade:        fmt.Sprintf("%d", i%12+1),
				SKU:          fmt.Sprintf("SKU-%05d", i),
				BookName:     fmt.Sprintf("Book %d", i),
				BookCategory: []string{"Text", "Workbook", "Reader"}[i%3],
				Qty:          int64(i % 50),
				SellingPrice: decimal.New(int64(1000+i%500), -2),
				CostPrice:    decimal.New(int64(600+i%300), -2),
			},
		}
	}
	return Enrich(books)
}

func BenchmarkFilter(b *testing.B) {
	rows := benchRows(10000)
	lo := int64(10)
	c := Criteria{Zones: []string{"Zone 1", "Zone 2"}, SKU: "sku-00", Qty: IntRange{Min: &lo}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Filter(rows, c)
	}
}

func BenchmarkSummarize(b *testing.B) {
	rows := benchRows(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Summarize(rows, DimensionGrade)
	}
}

func BenchmarkEnrich(b *testing.B) {
	rows := benchRows(10000)
	books := make([]Book, len(rows))
	for i, r := range rows {
		books[i] = r.Book
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Enrich(books)
	}
}
