package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/schoolbooks/internal/logging"
)

// SummaryCache stores computed summaries between mutations.
//
// Implementations are best effort: a failed lookup is a miss and a failed
// write is logged and dropped.
type SummaryCache interface {
	GetSummary(ctx context.Context, dim Dimension, c Criteria) (*Summary, bool)
	PutSummary(ctx context.Context, dim Dimension, c Criteria, s *Summary)
	Invalidate(ctx context.Context)
}

// invalidateTimeout bounds cache invalidation after a mutation.
const invalidateTimeout = 5 * time.Second

type nopCache struct{}

func (nopCache) GetSummary(context.Context, Dimension, Criteria) (*Summary, bool) { return nil, false }
func (nopCache) PutSummary(context.Context, Dimension, Criteria, *Summary)        {}
func (nopCache) Invalidate(context.Context)                                       {}

// Service owns the book collection. It is the single mutation boundary in
// front of a Store: mutations are serialized under one write lock, reads
// share a read lock and never observe a half-applied mutation.
type Service struct {
	store Store
	cache SummaryCache

	mu sync.RWMutex
}

// invalidate drops cached summaries after a mutation. It runs even when ctx
// is already done: rows inserted before a cancellation are still stored.
func (s *Service) invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()
	s.cache.Invalidate(ctx)
}

// Option configures a Service.
type Option func(*Service)

// WithSummaryCache enables summary caching.
func WithSummaryCache(c SummaryCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// NewService creates a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		cache: nopCache{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryResult is a filtered, enriched view plus totals over the matches.
type QueryResult struct {
	Rows   []Row  `json:"rows"`
	Totals Totals `json:"totals"`
}

// prepare validates an input and rounds its money to the stored scale.
func prepare(in BookInput) (BookInput, error) {
	if !InRange(in.SellingPrice) {
		return BookInput{}, &ValidationError{Field: "selling_price", Message: "is out of range"}
	}
	if !InRange(in.CostPrice) {
		return BookInput{}, &ValidationError{Field: "cost_price", Message: "is out of range"}
	}
	in.SellingPrice = RoundMoney(in.SellingPrice)
	in.CostPrice = RoundMoney(in.CostPrice)
	if err := in.Validate(); err != nil {
		return BookInput{}, err
	}
	return in, nil
}

// AddBook validates and stores a new book, returning its id.
func (s *Service) AddBook(ctx context.Context, in BookInput) (int64, error) {
	in, err := prepare(in)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.Insert(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	s.invalidate(ctx)

	logging.WithFields(ctx, clientAttrs(ctx)...).Debug("book added", "id", id, "sku", in.SKU)
	return id, nil
}

// UpdateBook replaces every attribute of book id.
func (s *Service) UpdateBook(ctx context.Context, id int64, in BookInput) error {
	in, err := prepare(in)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Update(ctx, id, in); err != nil {
		return fmt.Errorf("update book %d: %w", id, err)
	}
	s.invalidate(ctx)

	logging.WithFields(ctx, clientAttrs(ctx)...).Debug("book updated", "id", id)
	return nil
}

// DeleteBook removes book id.
func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	s.invalidate(ctx)

	logging.WithFields(ctx, clientAttrs(ctx)...).Debug("book deleted", "id", id)
	return nil
}

// GetBook returns one enriched book.
func (s *Service) GetBook(ctx context.Context, id int64) (Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Row{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return Row{Book: b, Metrics: ComputeMetrics(b.BookInput)}, nil
}

// ListBooks returns every book, enriched, in insertion order.
func (s *Service) ListBooks(ctx context.Context) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked(ctx)
}

func (s *Service) listLocked(ctx context.Context) ([]Row, error) {
	books, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return Enrich(books), nil
}

// QueryBooks returns the books matching c and totals over them.
func (s *Service) QueryBooks(ctx context.Context, c Criteria) (QueryResult, error) {
	if err := c.Validate(); err != nil {
		return QueryResult{}, err
	}

	rows, err := s.ListBooks(ctx)
	if err != nil {
		return QueryResult{}, err
	}

	matched := Filter(rows, c)
	return QueryResult{Rows: matched, Totals: Aggregate(matched)}, nil
}

// FilterOptions returns the distinct zones, grades and categories in the store.
func (s *Service) FilterOptions(ctx context.Context) (FilterOptions, error) {
	rows, err := s.ListBooks(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	return DistinctValues(rows), nil
}

// Summarize groups the books matching c by dim.
func (s *Service) Summarize(ctx context.Context, dim Dimension, c Criteria) (*Summary, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if cached, ok := s.cache.GetSummary(ctx, dim, c); ok {
		return cached, nil
	}

	rows, err := s.listLocked(ctx)
	if err != nil {
		return nil, err
	}
	sum := Summarize(Filter(rows, c), dim)

	// Stored under the read lock so a concurrent mutation's invalidation
	// cannot be overtaken by a stale write.
	s.cache.PutSummary(ctx, dim, c, sum)
	return sum, nil
}

// Ping checks that the store answers.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.store.List(ctx); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}
