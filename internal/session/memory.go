// Package session keeps import runs that are suspended on the category
// question, so a confirmation can be answered later.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

type memoryEntry struct {
	plan      *core.Plan
	expiresAt time.Time
}

// MemoryPlanStore is a process-local core.PlanStore with per-plan expiry.
type MemoryPlanStore struct {
	mu    sync.Mutex
	plans map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryPlanStore creates an empty store.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{
		plans: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

// Save stores plan until ttl elapses.
func (s *MemoryPlanStore) Save(ctx context.Context, plan *core.Plan, ttl time.Duration) error {
	if plan == nil || plan.ID == "" {
		return fmt.Errorf("save plan: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = memoryEntry{plan: plan, expiresAt: s.now().Add(ttl)}
	return nil
}

// Load returns the plan, or core.ErrImportNotFound when it is unknown or
// expired.
func (s *MemoryPlanStore) Load(ctx context.Context, id string) (*core.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.plans[id]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, core.ErrImportNotFound
	}
	return e.plan, nil
}

// Delete removes the plan. Unknown IDs are ignored.
func (s *MemoryPlanStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, id)
	return nil
}

// PurgeExpired drops expired plans.
func (s *MemoryPlanStore) PurgeExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, e := range s.plans {
		if !now.Before(e.expiresAt) {
			delete(s.plans, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored plans, expired ones included.
func (s *MemoryPlanStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}
