package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Defaults for ServiceConfig fields left at zero.
const (
	DefaultImportTimeout = 10 * time.Minute
	DefaultSessionTTL    = 30 * time.Minute
	DefaultRetention     = 5 * time.Minute
)

// PlanStore keeps suspended runs between the processing phase and the
// confirmation request, so a confirmation can arrive after a restart or on
// another instance.
type PlanStore interface {
	Save(ctx context.Context, plan *Plan, ttl time.Duration) error
	// Load returns ErrImportNotFound for unknown or expired plans.
	Load(ctx context.Context, id string) (*Plan, error)
	Delete(ctx context.Context, id string) error
	// PurgeExpired drops expired plans and reports how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Import        ImportOptions
	MaxConcurrent int           // Imports executing at once
	MaxWait       time.Duration // Wait for a free slot before ErrTooManyImports
	Timeout       time.Duration // Upper bound for one execution step
	PreviewSample int           // Sample rows returned by Preview
	SessionTTL    time.Duration // How long a run may await confirmation
	Retention     time.Duration // How long finished runs stay queryable
}

// Service tracks import runs for front ends that cannot block, such as the
// HTTP API. Runs execute in the background; callers poll or subscribe.
type Service struct {
	importer   *Importer
	categories CategoryDirectory
	plans      PlanStore
	limiter    *ImportLimiter
	cfg        ServiceConfig
	logger     *slog.Logger

	mu      sync.RWMutex
	imports map[string]*activeImport
}

type activeImport struct {
	Run        *Run
	Cancel     context.CancelFunc
	Confirming bool
	CreatedAt  time.Time
}

// ImportStatus is a point-in-time view of a run.
type ImportStatus struct {
	ImportID  string         `json:"importId"`
	FileName  string         `json:"fileName"`
	State     RunState       `json:"state"`
	Progress  ImportProgress `json:"progress"`
	Missing   []string       `json:"missingCategories,omitempty"`
	Error     *UserMessage   `json:"error,omitempty"`
	Reasons   []string       `json:"reasons,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewService creates a Service. plans may be nil, in which case suspended
// runs live only in memory.
func NewService(products ProductStore, categories CategoryDirectory, plans PlanStore, cfg ServiceConfig) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	if cfg.PreviewSample <= 0 {
		cfg.PreviewSample = DefaultPreviewSample
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}

	importer := NewImporter(products, categories, cfg.Import)

	return &Service{
		importer:   importer,
		categories: categories,
		plans:      plans,
		limiter:    NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:        cfg,
		logger:     importer.opts.Logger,
		imports:    make(map[string]*activeImport),
	}
}

// StartImport checks the file, waits for a free slot and starts the run in
// the background. It returns the import ID.
func (s *Service) StartImport(ctx context.Context, f File) (string, error) {
	if err := ValidateFile(f, s.importer.opts.MaxFileSize); err != nil {
		return "", err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	run := s.importer.NewRun(f)
	execCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)

	s.mu.Lock()
	s.imports[run.ID] = &activeImport{Run: run, Cancel: cancel, CreatedAt: time.Now()}
	s.mu.Unlock()

	go s.prepare(execCtx, cancel, run)

	return run.ID, nil
}

// prepare runs the first half of an import. Runs with nothing to confirm
// continue straight to insertion.
func (s *Service) prepare(ctx context.Context, cancel context.CancelFunc, run *Run) {
	defer cancel()
	defer s.limiter.Release()

	need, err := run.Prepare(ctx)
	if err != nil {
		s.cleanup(run.ID, s.cfg.Retention)
		return
	}

	if need != nil {
		if s.plans != nil {
			if err := s.plans.Save(ctx, run.Plan(), s.cfg.SessionTTL); err != nil {
				run.logger.Warn("save plan failed", "error", err)
			}
		}
		return
	}

	_, _ = run.Resume(ctx, true)
	s.cleanup(run.ID, s.cfg.Retention)
}

// Subscribe returns a channel that receives progress updates.
// The channel is closed after the terminal phase.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan ImportProgress, error) {
	ai, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return ai.Run.Subscribe(), nil
}

// Status returns a snapshot of a run.
func (s *Service) Status(ctx context.Context, id string) (ImportStatus, error) {
	ai, err := s.lookup(ctx, id)
	if err != nil {
		return ImportStatus{}, err
	}

	run := ai.Run
	status := ImportStatus{
		ImportID:  run.ID,
		FileName:  run.FileName,
		State:     run.State(),
		Progress:  run.Progress(),
		CreatedAt: ai.CreatedAt,
	}
	if status.State == StateAwaiting {
		if plan := run.Plan(); plan != nil {
			status.Missing = plan.Missing
		}
	}
	if _, runErr := run.Outcome(); runErr != nil {
		msg := MapError(runErr)
		status.Error = &msg
		status.Reasons = ReasonsOf(runErr)
	}
	return status, nil
}

// Confirm answers the category question of a suspended run. Insertion runs
// in the background.
func (s *Service) Confirm(ctx context.Context, id string, confirm bool) error {
	ai, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if ai.Confirming || ai.Run.State() != StateAwaiting {
		s.mu.Unlock()
		return ErrNotAwaitingConfirmation
	}
	ai.Confirming = true
	s.mu.Unlock()

	release := func() {}
	if confirm {
		if err := s.limiter.Acquire(ctx); err != nil {
			s.mu.Lock()
			ai.Confirming = false
			s.mu.Unlock()
			return err
		}
		release = s.limiter.Release
	}

	execCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	s.mu.Lock()
	ai.Cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		defer release()

		_, _ = ai.Run.Resume(execCtx, confirm)
		if s.plans != nil {
			if err := s.plans.Delete(context.Background(), id); err != nil {
				ai.Run.logger.Warn("delete plan failed", "error", err)
			}
		}
		s.cleanup(id, s.cfg.Retention)
	}()

	return nil
}

// Cancel stops a run. A running import stops before its next chunk; a run
// awaiting confirmation is declined.
func (s *Service) Cancel(ctx context.Context, id string) error {
	ai, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	switch ai.Run.State() {
	case StateAwaiting:
		err := s.Confirm(ctx, id, false)
		if errors.Is(err, ErrNotAwaitingConfirmation) {
			s.cancelRunning(ai)
			return nil
		}
		return err
	case StateDone:
		return nil
	default:
		s.cancelRunning(ai)
		return nil
	}
}

func (s *Service) cancelRunning(ai *activeImport) {
	s.mu.RLock()
	cancel := ai.Cancel
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Result returns the outcome of a finished run. ErrImportInProgress is
// returned while the run is still going.
func (s *Service) Result(ctx context.Context, id string) (*ImportResult, error) {
	ai, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	select {
	case <-ai.Run.Done():
	default:
		return nil, ErrImportInProgress
	}

	result, runErr := ai.Run.Outcome()
	if result == nil {
		return nil, runErr
	}
	return result, nil
}

// Wait blocks until the run is done or ctx ends.
func (s *Service) Wait(ctx context.Context, id string) error {
	ai, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	select {
	case <-ai.Run.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Preview checks and parses a file without importing it, and reports which
// referenced categories do not exist yet.
func (s *Service) Preview(ctx context.Context, f File, sampleSize int) (Preview, error) {
	if err := ValidateFile(f, s.importer.opts.MaxFileSize); err != nil {
		return Preview{}, err
	}
	text, err := DecodeText(f.Data)
	if err != nil {
		return Preview{}, err
	}
	if sampleSize <= 0 {
		sampleSize = s.cfg.PreviewSample
	}

	p := BuildPreview(text, sampleSize)
	if len(p.Categories) > 0 {
		existing, err := s.categories.ExistingCategories(ctx, p.Categories)
		if err != nil {
			return Preview{}, fmt.Errorf("look up categories: %w", err)
		}
		p.MissingCategories = missingNames(p.Categories, existing)
	}
	return p, nil
}

// WaitForImports blocks until no import holds a slot, for graceful shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LimiterStatus returns the current concurrency state.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// lookup finds a run in memory, or restores a suspended one from the plan
// store.
func (s *Service) lookup(ctx context.Context, id string) (*activeImport, error) {
	s.mu.RLock()
	ai, ok := s.imports[id]
	s.mu.RUnlock()
	if ok {
		return ai, nil
	}

	if s.plans == nil {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	plan, err := s.plans.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ai, ok := s.imports[id]; ok {
		return ai, nil
	}
	ai = &activeImport{Run: s.importer.RunFromPlan(plan), CreatedAt: plan.CreatedAt}
	s.imports[id] = ai
	s.logger.Info("restored suspended import", "import_id", id, "missing", plan.Missing)
	return ai, nil
}

// cleanup removes the run from tracking after a delay.
func (s *Service) cleanup(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.imports, id)
		s.mu.Unlock()
	})
}
