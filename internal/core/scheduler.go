package core

// scheduler.go runs periodic housekeeping for the import service.
//
// Each sweep:
//  1. Declines runs that waited for category confirmation longer than the
//     session TTL, freeing their memory
//  2. Purges expired plans from the plan store
//
// Finished runs are removed by their own retention timer, not by the sweep.

import (
	"context"
	"time"
)

// DefaultJanitorInterval is how often StartJanitor sweeps when no interval is
// given.
const DefaultJanitorInterval = time.Minute

// StartJanitor sweeps every interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	s.logger.Info("import janitor started",
		"interval", interval.String(),
		"session_ttl", s.cfg.SessionTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("import janitor stopped")
			return
		case <-ticker.C:
			s.sweep(ctx, time.Now())
		}
	}
}

// sweep performs one housekeeping cycle and returns how many suspended runs
// were expired.
func (s *Service) sweep(ctx context.Context, now time.Time) int {
	start := time.Now()

	var stale []string
	s.mu.RLock()
	for id, ai := range s.imports {
		if ai.Confirming || ai.Run.State() != StateAwaiting {
			continue
		}
		if now.Sub(ai.CreatedAt) > s.cfg.SessionTTL {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	expired := 0
	for _, id := range stale {
		if err := s.Confirm(ctx, id, false); err != nil {
			continue
		}
		expired++
	}

	purged := 0
	if s.plans != nil {
		n, err := s.plans.PurgeExpired(ctx)
		if err != nil {
			s.logger.Error("purge expired plans failed", "error", err)
		}
		purged = n
	}

	if expired > 0 || purged > 0 {
		s.logger.Info("import janitor sweep",
			"expired_runs", expired,
			"purged_plans", purged,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return expired
}
