package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/schoolbooks/internal/core"
	"github.com/JonMunkholm/schoolbooks/internal/store"
)

func newService(t *testing.T, opts ...core.Option) *core.Service {
	t.Helper()
	return core.NewService(store.NewMemory(), opts...)
}

func bookInput(zone, sku string, qty int64, sell, cost string) core.BookInput {
	return core.BookInput{
		Zone:         zone,
		Grade:        "5",
		SKU:          sku,
		BookName:     "Math",
		BookCategory: "Core",
		Qty:          qty,
		SellingPrice: decimal.RequireFromString(sell),
		CostPrice:    decimal.RequireFromString(cost),
	}
}

func importRow(qty string) map[string]string {
	return map[string]string{
		"Zone": "North", "Grade": "5", "SKU": "B", "Book Name": "Math",
		"Book Category": "Core", "Qty": qty, "Selling Price": "10", "Cost Price": "4",
	}
}

// ============================================================================
// Mutations
// ============================================================================

func TestService_AddAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	id, err := svc.AddBook(ctx, bookInput("North", "B1", 10, "100", "60"))
	require.NoError(t, err)

	row, err := svc.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, row.ID)
	assert.Equal(t, "600.00", core.FormatMoney(row.TotalCost))
	assert.Equal(t, "1000.00", core.FormatMoney(row.TotalSelling))
	assert.Equal(t, "400.00", core.FormatMoney(row.Margin))
	require.NotNil(t, row.MarginPercent)
	assert.Equal(t, "40.00", core.FormatMoney(*row.MarginPercent))
}

func TestService_AddRoundsMoney(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	id, err := svc.AddBook(ctx, bookInput("North", "B1", 1, "9.999", "1.234"))
	require.NoError(t, err)

	row, err := svc.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "10.00", core.FormatMoney(row.SellingPrice))
	assert.Equal(t, "1.23", core.FormatMoney(row.CostPrice))
}

func TestService_AddRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.AddBook(ctx, bookInput("North", "B1", -1, "1", "1"))
	assert.True(t, core.IsValidation(err))

	rows, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_RejectsOutOfRangeNumbers(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	in := bookInput("North", "B1", 1, "1", "1")
	in.SellingPrice = decimal.New(1, 20000000)
	_, err := svc.AddBook(ctx, in)
	assert.True(t, core.IsValidation(err), "huge price: %v", err)

	in = bookInput("North", "B1", 1, "1", "1")
	in.CostPrice = decimal.New(1, -20000000)
	_, err = svc.AddBook(ctx, in)
	assert.True(t, core.IsValidation(err), "tiny price: %v", err)

	huge := decimal.New(-1, 20000000)
	c := core.Criteria{Margin: core.DecimalRange{Min: &huge}}

	_, err = svc.QueryBooks(ctx, c)
	assert.True(t, core.IsValidation(err), "query bound: %v", err)

	_, err = svc.Summarize(ctx, core.DimensionZone, c)
	assert.True(t, core.IsValidation(err), "summary bound: %v", err)
}

func TestService_ZeroQtyHasNullPercent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	id, err := svc.AddBook(ctx, bookInput("North", "B1", 0, "100", "60"))
	require.NoError(t, err)

	row, err := svc.GetBook(ctx, id)
	require.NoError(t, err)
	assert.True(t, row.TotalSelling.IsZero())
	assert.Nil(t, row.MarginPercent)
}

func TestService_IDsUniqueAndCountTracksDeletes(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	seen := map[int64]bool{}
	var ids []int64
	for i := 0; i < 10; i++ {
		id, err := svc.AddBook(ctx, bookInput("North", fmt.Sprintf("B%d", i), 1, "1", "1"))
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
		ids = append(ids, id)
	}
	require.NoError(t, svc.DeleteBook(ctx, ids[2]))
	require.NoError(t, svc.DeleteBook(ctx, ids[7]))

	rows, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 8)
}

func TestService_UpdateReplacesAllFields(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	id, err := svc.AddBook(ctx, bookInput("North", "B1", 10, "100", "60"))
	require.NoError(t, err)

	repl := core.BookInput{Zone: "South", Qty: 2, SellingPrice: decimal.NewFromInt(5), CostPrice: decimal.Zero}
	require.NoError(t, svc.UpdateBook(ctx, id, repl))

	row, err := svc.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "South", row.Zone)
	assert.Empty(t, row.SKU)
	assert.Empty(t, row.BookName)
	assert.EqualValues(t, 2, row.Qty)
}

func TestService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.AddBook(ctx, bookInput("North", "B1", 1, "1", "1"))
	require.NoError(t, err)

	err = svc.UpdateBook(ctx, 99, bookInput("North", "B1", 1, "1", "1"))
	assert.ErrorIs(t, err, core.ErrNotFound)
	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.EqualValues(t, 99, nf.ID)

	assert.ErrorIs(t, svc.DeleteBook(ctx, 99), core.ErrNotFound)
	_, err = svc.GetBook(ctx, 99)
	assert.ErrorIs(t, err, core.ErrNotFound)

	rows, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B1", rows[0].SKU, "failed mutations leave the store untouched")
}

// ============================================================================
// Queries
// ============================================================================

func TestService_QueryBooks(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	for _, in := range []core.BookInput{
		bookInput("North", "B1", 10, "100", "60"),
		bookInput("South", "B2", 1, "10", "5"),
		bookInput("North", "B3", 2, "20", "10"),
	} {
		_, err := svc.AddBook(ctx, in)
		require.NoError(t, err)
	}

	res, err := svc.QueryBooks(ctx, core.Criteria{Zones: []string{"North"}})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "B1", res.Rows[0].SKU)
	assert.Equal(t, "B3", res.Rows[1].SKU)
	assert.Equal(t, 2, res.Totals.Count)
	assert.Equal(t, "1040.00", core.FormatMoney(res.Totals.TotalSelling))

	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"North", "South"}, opts.Zones)

	require.NoError(t, svc.Ping(ctx))
}

// ============================================================================
// Import
// ============================================================================

func TestService_ImportCoercesBadQty(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	batch := core.Batch{
		FileName: "books.xlsx",
		Columns:  core.ImportColumns,
		Rows: []map[string]string{
			importRow("1"), importRow("2"), importRow("three"), importRow("4"), importRow("5"),
		},
	}

	res, err := svc.ImportBatch(ctx, batch)
	require.NoError(t, err)
	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, "books.xlsx", res.FileName)
	assert.Equal(t, 5, res.TotalRows)
	assert.Equal(t, 5, res.Inserted)
	assert.Len(t, res.InsertedIDs, 5)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 1, res.CoercedRows)
	assert.Equal(t, []core.RowCoercion{{Row: 3, Fields: []string{core.ColQty}}}, res.Coerced)

	rows, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.EqualValues(t, 0, rows[2].Qty)
	assert.EqualValues(t, 4, rows[3].Qty)
}

func TestService_ImportReportsRowFailures(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	bad := importRow("-2")
	batch := core.Batch{
		Columns: core.ImportColumns,
		Rows:    []map[string]string{importRow("1"), bad, importRow("3")},
	}

	res, err := svc.ImportBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 2, res.Failed[0].Row)
	assert.Contains(t, res.Failed[0].Reason, "qty")
}

func TestService_ImportSchemaErrorChangesNothing(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	batch := core.Batch{
		Columns: []string{"Zone", "Grade", "SKU", "Book Name", "Book Category", "Selling Price", "Cost Price"},
		Rows:    []map[string]string{importRow("1")},
	}
	res, err := svc.ImportBatch(ctx, batch)
	assert.Nil(t, res)
	var se *core.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{core.ColQty}, se.Missing)

	rows, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_ImportStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newService(t)

	res, err := svc.ImportBatch(ctx, core.Batch{
		Columns: core.ImportColumns,
		Rows:    []map[string]string{importRow("1")},
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.Inserted)
}

// ============================================================================
// Concurrency
// ============================================================================

func TestService_ConcurrentMutationsAndReads(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := svc.AddBook(ctx, bookInput("North", fmt.Sprintf("W%d-%d", w, i), 1, "2", "1"))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			res, err := svc.QueryBooks(ctx, core.Criteria{})
			assert.NoError(t, err)
			assert.Equal(t, len(res.Rows), res.Totals.Count)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.ImportBatch(ctx, core.Batch{
			Columns: core.ImportColumns,
			Rows:    []map[string]string{importRow("1"), importRow("2")},
		})
		assert.NoError(t, err)
	}()
	wg.Wait()

	rows, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, writers*perWriter+2)

	seen := map[int64]bool{}
	for _, r := range rows {
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}
}

// ============================================================================
// Summary cache
// ============================================================================

type countingCache struct {
	mu          sync.Mutex
	entries     map[string]*core.Summary
	hits        int
	invalidated int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string]*core.Summary{}}
}

func cacheKey(dim core.Dimension, c core.Criteria) string {
	return fmt.Sprintf("%s|%v", dim, c.Zones)
}

func (c *countingCache) GetSummary(_ context.Context, dim core.Dimension, cr core.Criteria) (*core.Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[cacheKey(dim, cr)]
	if ok {
		c.hits++
	}
	return s, ok
}

func (c *countingCache) PutSummary(_ context.Context, dim core.Dimension, cr core.Criteria, s *core.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(dim, cr)] = s
}

func (c *countingCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*core.Summary{}
	c.invalidated++
}

// cancelingStore cancels the import's context once it has inserted n rows.
type cancelingStore struct {
	core.Store
	n      int
	cancel context.CancelFunc
}

func (s *cancelingStore) Insert(ctx context.Context, in core.BookInput) (int64, error) {
	id, err := s.Store.Insert(ctx, in)
	if s.n--; s.n == 0 {
		s.cancel()
	}
	return id, err
}

type ctxRecordingCache struct {
	*countingCache
	invalidateErr error
}

func (c *ctxRecordingCache) Invalidate(ctx context.Context) {
	c.invalidateErr = ctx.Err()
	c.countingCache.Invalidate(ctx)
}

func TestService_InterruptedImportStillInvalidates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := &ctxRecordingCache{countingCache: newCountingCache()}
	svc := core.NewService(&cancelingStore{Store: store.NewMemory(), n: 2, cancel: cancel}, core.WithSummaryCache(cache))

	res, err := svc.ImportBatch(ctx, core.Batch{
		Columns: core.ImportColumns,
		Rows:    []map[string]string{importRow("1"), importRow("2"), importRow("3")},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, res.Inserted)

	assert.Equal(t, 1, cache.invalidated)
	assert.NoError(t, cache.invalidateErr, "invalidation runs on a live context")
}

func TestService_MutationInvalidatesAfterCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := &ctxRecordingCache{countingCache: newCountingCache()}
	svc := core.NewService(&cancelingStore{Store: store.NewMemory(), n: 1, cancel: cancel}, core.WithSummaryCache(cache))

	_, err := svc.AddBook(ctx, bookInput("North", "B1", 1, "2", "1"))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)
	assert.NoError(t, cache.invalidateErr)
}

func TestService_SummarizeUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := newCountingCache()
	svc := newService(t, core.WithSummaryCache(cache))

	_, err := svc.AddBook(ctx, bookInput("North", "B1", 10, "100", "60"))
	require.NoError(t, err)

	first, err := svc.Summarize(ctx, core.DimensionZone, core.Criteria{})
	require.NoError(t, err)
	require.Len(t, first.Groups, 1)

	_, err = svc.Summarize(ctx, core.DimensionZone, core.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = svc.AddBook(ctx, bookInput("South", "B2", 1, "10", "5"))
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidated)

	after, err := svc.Summarize(ctx, core.DimensionZone, core.Criteria{})
	require.NoError(t, err)
	assert.Len(t, after.Groups, 2, "mutation invalidates the cached summary")
}
