package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/schoolbooks/internal/core"
)

// Memory is an in-process Store. Records live in an ordered slice with an
// id index; ids come from a counter that never goes backwards.
type Memory struct {
	mu     sync.RWMutex
	books  []core.Book
	index  map[int64]int
	nextID int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		index:  make(map[int64]int),
		nextID: 1,
	}
}

func (m *Memory) Insert(_ context.Context, in core.BookInput) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	m.index[id] = len(m.books)
	m.books = append(m.books, core.Book{ID: id, BookInput: in})
	return id, nil
}

func (m *Memory) Update(_ context.Context, id int64, in core.BookInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return core.NotFound(id)
	}
	m.books[i].BookInput = in
	return nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return core.NotFound(id)
	}

	m.books = append(m.books[:i], m.books[i+1:]...)
	delete(m.index, id)
	for j := i; j < len(m.books); j++ {
		m.index[m.books[j].ID] = j
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id int64) (core.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return core.Book{}, core.NotFound(id)
	}
	return m.books[i], nil
}

// List returns a copy of every record in insertion order.
func (m *Memory) List(_ context.Context) ([]core.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Book, len(m.books))
	copy(out, m.books)
	return out, nil
}

func (m *Memory) Close() error { return nil }
