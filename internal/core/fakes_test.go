package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// recorder keeps the order of store and directory calls.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeStore struct {
	mu       sync.Mutex
	calls    int
	failLine int // a chunk containing this line fails
	onInsert func(call int)
	inserted []CatalogEntryCandidate
	rec      *recorder
}

func (f *fakeStore) InsertProducts(ctx context.Context, products []CatalogEntryCandidate) ([]CatalogEntry, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	f.rec.add("insert")
	if f.onInsert != nil {
		f.onInsert(call)
	}

	for _, p := range products {
		if f.failLine != 0 && p.Line == f.failLine {
			return nil, errors.New("duplicate key value violates unique constraint")
		}
	}

	entries := make([]CatalogEntry, len(products))
	for i, p := range products {
		entries[i] = CatalogEntry{ID: fmt.Sprintf("id-%d", p.Line), CatalogEntryCandidate: p, CreatedAt: time.Now()}
	}

	f.mu.Lock()
	f.inserted = append(f.inserted, products...)
	f.mu.Unlock()
	return entries, nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDirectory struct {
	mu        sync.Mutex
	existing  map[string]bool
	created   []NewCategory
	lookupErr error
	createErr error
	rec       *recorder
}

func newFakeDirectory(names ...string) *fakeDirectory {
	d := &fakeDirectory{existing: make(map[string]bool)}
	for _, n := range names {
		d.existing[n] = true
	}
	return d
}

func (d *fakeDirectory) ExistingCategories(ctx context.Context, names []string) ([]string, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, n := range names {
		if d.existing[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

func (d *fakeDirectory) CreateCategories(ctx context.Context, categories []NewCategory) error {
	d.rec.add("create")
	if d.createErr != nil {
		return d.createErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range categories {
		d.existing[c.Name] = true
		d.created = append(d.created, c)
	}
	return nil
}

// fakePlanStore is a minimal PlanStore for service tests.
type fakePlanStore struct {
	mu    sync.Mutex
	plans map[string]*Plan
}

func newFakePlanStore() *fakePlanStore {
	return &fakePlanStore{plans: make(map[string]*Plan)}
}

func (s *fakePlanStore) Save(ctx context.Context, plan *Plan, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan
	return nil
}

func (s *fakePlanStore) Load(ctx context.Context, id string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, ErrImportNotFound
	}
	return p, nil
}

func (s *fakePlanStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, id)
	return nil
}

func (s *fakePlanStore) PurgeExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *fakePlanStore) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.plans[id]
	return ok
}

func csvFile(text string) File {
	return File{Name: "produtos.csv", Size: int64(len(text)), Data: []byte(text)}
}

func nProducts(n int, category string) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = productLine(fmt.Sprintf("Produto %d", i+1), category)
	}
	return csvText(rows...)
}

func drain(ch <-chan ImportProgress) []ImportProgress {
	var out []ImportProgress
	for p := range ch {
		out = append(out, p)
	}
	return out
}
