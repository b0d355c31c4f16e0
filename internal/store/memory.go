package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

// Memory is an in-process store used for dry runs and tests.
type Memory struct {
	// FailChunk, when set, is consulted before each chunk is stored. A
	// non-nil error rejects the whole chunk.
	FailChunk func(products []core.CatalogEntryCandidate) error

	mu         sync.RWMutex
	products   []core.CatalogEntry
	categories map[string]core.NewCategory
	order      []string
}

// NewMemory creates a Memory store holding the given category names.
func NewMemory(categories ...string) *Memory {
	m := &Memory{categories: make(map[string]core.NewCategory)}
	for _, name := range categories {
		m.addCategory(core.NewCategory{Name: name, IsActive: true})
	}
	return m
}

// InsertProducts stores the chunk and assigns IDs.
func (m *Memory) InsertProducts(ctx context.Context, products []core.CatalogEntryCandidate) ([]core.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FailChunk != nil {
		if err := m.FailChunk(products); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	entries := make([]core.CatalogEntry, len(products))
	for i, c := range products {
		entries[i] = core.CatalogEntry{
			ID:                    uuid.NewString(),
			CatalogEntryCandidate: c,
			CreatedAt:             now,
		}
	}

	m.mu.Lock()
	m.products = append(m.products, entries...)
	m.mu.Unlock()
	return entries, nil
}

// ExistingCategories returns the names from names that exist.
func (m *Memory) ExistingCategories(ctx context.Context, names []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var existing []string
	for _, n := range names {
		if _, ok := m.categories[n]; ok {
			existing = append(existing, n)
		}
	}
	return existing, nil
}

// CreateCategories adds categories, skipping names already present.
func (m *Memory) CreateCategories(ctx context.Context, categories []core.NewCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range categories {
		m.addCategory(c)
	}
	return nil
}

func (m *Memory) addCategory(c core.NewCategory) {
	if _, ok := m.categories[c.Name]; ok {
		return
	}
	m.categories[c.Name] = c
	m.order = append(m.order, c.Name)
}

// Products returns a copy of every stored product.
func (m *Memory) Products() []core.CatalogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.products)
}

// Categories returns the stored categories in creation order.
func (m *Memory) Categories() []core.NewCategory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.NewCategory, len(m.order))
	for i, name := range m.order {
		out[i] = m.categories[name]
	}
	return out
}
