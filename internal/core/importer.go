package core

// importer.go drives an import run through its phases.
//
// A run is split at the category question: Prepare covers uploading,
// validating and processing, and returns a NeedsCategoryConfirmation when
// the file references unknown categories. Resume answers the question and
// performs the insert. Front ends that can block (the CLI) use Import, which
// chains both with a ConfirmFunc.

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of products sent to the store per call.
const DefaultChunkSize = 10

// Defaults for categories created during an import.
const (
	DefaultCategoryDescription = "Categoria criada automaticamente durante importação CSV"
	DefaultCategoryColor       = "#6B7280"
	DefaultCategoryIcon        = "Package"
)

// ImportOptions configures an Importer. Zero values select the defaults.
type ImportOptions struct {
	ChunkSize   int          // Products per store call (default 10)
	Workers     int          // Chunks inserted concurrently (default 1)
	MaxFileSize int64        // Upload ceiling in bytes (default 5 MB)
	Logger      *slog.Logger // Defaults to slog.Default()

	// OnProgress, when set, receives the progress values of runs started
	// through Import. The terminal value is always delivered before Import
	// returns.
	OnProgress func(ImportProgress)
}

// ConfirmFunc decides whether missing categories may be created.
type ConfirmFunc func(ctx context.Context, missing []string) (bool, error)

// Importer creates runs against one product store and category directory.
type Importer struct {
	products   ProductStore
	categories CategoryDirectory
	opts       ImportOptions
}

// NewImporter creates an Importer.
func NewImporter(products ProductStore, categories CategoryDirectory, opts ImportOptions) *Importer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Importer{products: products, categories: categories, opts: opts}
}

// Plan is the output of the processing phase: everything needed to insert,
// without the original file. It is what a suspended run persists while it
// waits for category confirmation.
type Plan struct {
	ID         string                  `json:"id"`
	FileName   string                  `json:"fileName"`
	Candidates []CatalogEntryCandidate `json:"candidates"`
	Missing    []string                `json:"missing"`
	Statistics ParseStatistics         `json:"statistics"`
	RowErrors  []string                `json:"rowErrors"`
	Warnings   []string                `json:"warnings"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// RunState is the lifecycle position of a run.
type RunState string

const (
	StateNew       RunState = "new"
	StatePreparing RunState = "preparing"
	StateAwaiting  RunState = "awaiting_confirmation"
	StateReady     RunState = "ready"
	StateRunning   RunState = "running"
	StateDone      RunState = "done"
)

// Run is one import of one file.
type Run struct {
	ID       string
	FileName string

	importer *Importer
	file     File
	progress *progressTracker
	logger   *slog.Logger
	done     chan struct{}

	mu      sync.Mutex
	state   RunState
	plan    *Plan
	result  *ImportResult
	err     error
	started time.Time
}

// NewRun creates a run for file with a fresh ID.
func (im *Importer) NewRun(f File) *Run {
	return im.newRun(uuid.NewString(), f)
}

func (im *Importer) newRun(id string, f File) *Run {
	return &Run{
		ID:       id,
		FileName: f.Name,
		importer: im,
		file:     f,
		progress: newProgressTracker(id),
		logger:   im.opts.Logger.With("import_id", id, "file", f.Name),
		done:     make(chan struct{}),
		state:    StateNew,
		started:  time.Now(),
	}
}

// RunFromPlan restores a run suspended after processing. The restored run
// accepts Resume.
func (im *Importer) RunFromPlan(p *Plan) *Run {
	r := im.newRun(p.ID, File{Name: p.FileName})
	r.plan = p
	r.state = StateReady
	if len(p.Missing) > 0 {
		r.state = StateAwaiting
	}
	r.progress.publish(ImportProgress{
		Phase:   PhaseProcessing,
		Message: awaitingMessage(p),
		Total:   len(p.Candidates),
	})
	return r
}

// Import runs a whole import, asking confirm when categories are missing.
// A nil confirm declines.
func (im *Importer) Import(ctx context.Context, f File, confirm ConfirmFunc) (*ImportResult, error) {
	run := im.NewRun(f)

	if im.opts.OnProgress != nil {
		updates := run.Subscribe()
		forwarded := make(chan struct{})
		go func() {
			defer close(forwarded)
			for p := range updates {
				im.opts.OnProgress(p)
			}
		}()
		defer func() { <-forwarded }()
	}

	need, err := run.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	ok := true
	if need != nil {
		ok = false
		if confirm != nil {
			if ok, err = confirm(ctx, need.Missing); err != nil {
				_, _ = run.Resume(ctx, false)
				return nil, fmt.Errorf("confirm categories: %w", err)
			}
		}
	}

	return run.Resume(ctx, ok)
}

// Subscribe returns a channel of progress values. The current value is sent
// immediately; the channel is closed after the terminal value.
func (r *Run) Subscribe() <-chan ImportProgress {
	return r.progress.subscribe()
}

// Progress returns the latest progress value.
func (r *Run) Progress() ImportProgress {
	return r.progress.snapshot()
}

// State returns the lifecycle position of the run.
func (r *Run) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Plan returns the processing output, or nil before Prepare succeeded.
func (r *Run) Plan() *Plan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plan
}

// Done is closed when the run reaches a terminal phase.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Outcome returns the result and the fatal error, if any. Both are nil
// until the run is done.
func (r *Run) Outcome() (*ImportResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.err
}

// Prepare runs the uploading, validating and processing phases. It returns a
// NeedsCategoryConfirmation when the file references unknown categories, or
// nil when the run can be resumed straight away.
func (r *Run) Prepare(ctx context.Context) (*NeedsCategoryConfirmation, error) {
	r.mu.Lock()
	if r.state != StateNew {
		r.mu.Unlock()
		return nil, fmt.Errorf("prepare import %s: already %s", r.ID, r.state)
	}
	r.state = StatePreparing
	r.started = time.Now()
	r.mu.Unlock()

	r.phase(PhaseUploading, "Checking file", 0, 0)
	if err := ValidateFile(r.file, r.importer.opts.MaxFileSize); err != nil {
		return nil, r.fail(err)
	}
	text, err := DecodeText(r.file.Data)
	if err != nil {
		return nil, r.fail(newPipelineError(PhaseUploading, KindFile, err))
	}

	r.phase(PhaseValidating, "Validating file structure", 0, 0)
	parsed := ParseText(text)
	if !parsed.Valid {
		return nil, r.fail(newPipelineError(PhaseValidating, KindStructural, nil, parsed.Errors...))
	}
	for _, w := range parsed.Warnings {
		r.logger.Warn("header warning", "warning", w)
	}

	total := len(parsed.Rows)
	r.phase(PhaseProcessing, fmt.Sprintf("Converting %d products", total), 0, total)
	candidates, err := convertRows(parsed.Rows)
	if err != nil {
		return nil, r.fail(newPipelineError(PhaseProcessing, KindConversion, err))
	}

	names := categoryNames(candidates)
	existing, err := r.importer.categories.ExistingCategories(ctx, names)
	if err != nil {
		return nil, r.fail(newPipelineError(PhaseProcessing, KindCategories,
			fmt.Errorf("look up categories: %w", err)))
	}

	plan := &Plan{
		ID:         r.ID,
		FileName:   r.FileName,
		Candidates: candidates,
		Missing:    missingNames(names, existing),
		Statistics: parsed.Statistics,
		RowErrors:  parsed.Errors,
		Warnings:   parsed.Warnings,
		CreatedAt:  time.Now(),
	}

	r.mu.Lock()
	r.plan = plan
	r.state = StateReady
	if len(plan.Missing) > 0 {
		r.state = StateAwaiting
	}
	r.mu.Unlock()

	if len(plan.Missing) == 0 {
		return nil, nil
	}

	r.phase(PhaseProcessing, awaitingMessage(plan), 0, total)
	r.logger.Info("awaiting category confirmation", "missing", plan.Missing)
	return &NeedsCategoryConfirmation{ImportID: r.ID, Missing: plan.Missing}, nil
}

// Resume continues a prepared run. When categories are missing, confirm
// decides whether they are created (true) or the run ends without
// persisting anything (false). When nothing is missing, confirm is ignored.
//
// A run cancelled through ctx stops between chunks and returns both its
// partial result and an error wrapping ErrImportCancelled.
func (r *Run) Resume(ctx context.Context, confirm bool) (*ImportResult, error) {
	r.mu.Lock()
	if r.state != StateAwaiting && r.state != StateReady {
		r.mu.Unlock()
		return nil, ErrNotAwaitingConfirmation
	}
	awaiting := r.state == StateAwaiting
	r.state = StateRunning
	plan := r.plan
	r.mu.Unlock()

	total := len(plan.Candidates)
	var created []string

	if awaiting {
		if !confirm {
			return nil, r.fail(newPipelineError(PhaseProcessing, KindDeclined, ErrCategoriesDeclined,
				fmt.Sprintf("category creation declined: %s", strings.Join(plan.Missing, ", "))))
		}

		r.phase(PhaseProcessing, fmt.Sprintf("Creating %d categories", len(plan.Missing)), 0, total)
		if err := r.importer.categories.CreateCategories(ctx, newCategories(plan.Missing)); err != nil {
			return nil, r.fail(newPipelineError(PhaseProcessing, KindCategories,
				fmt.Errorf("create categories: %w", err)))
		}
		created = plan.Missing
		r.logger.Info("categories created", "count", len(created))
	}

	result := r.insert(ctx, plan)
	result.CreatedCategories = created
	result.Duration = time.Since(r.started)

	if result.Cancelled {
		err := newPipelineError(PhaseInserting, KindCancelled, ErrImportCancelled, fmt.Sprintf(
			"import cancelled: %d inserted, %d failed, %d not attempted",
			result.SuccessCount, result.ErrorCount, result.NotAttempted))
		r.logger.Warn("import cancelled", "inserted", result.SuccessCount, "not_attempted", result.NotAttempted)
		r.finish(result, err, ImportProgress{
			Phase:   PhaseError,
			Message: err.Reasons[0],
			Current: result.TotalProcessed,
			Total:   total,
		})
		return result, err
	}

	r.logger.Info("import completed",
		"inserted", result.SuccessCount,
		"failed", result.ErrorCount,
		"duration_ms", result.Duration.Milliseconds(),
	)
	r.finish(result, nil, ImportProgress{
		Phase:   PhaseCompleted,
		Message: fmt.Sprintf("Import finished: %d inserted, %d failed", result.SuccessCount, result.ErrorCount),
		Current: total,
		Total:   total,
	})
	return result, nil
}

// insert writes the plan's candidates chunk by chunk. A failed chunk is
// counted and recorded; the remaining chunks are still attempted.
func (r *Run) insert(ctx context.Context, plan *Plan) *ImportResult {
	chunks := chunkCandidates(plan.Candidates, r.importer.opts.ChunkSize)
	total := len(plan.Candidates)

	result := &ImportResult{
		ImportID:         r.ID,
		FileName:         r.FileName,
		SkippedRows:      plan.Statistics.InvalidRows,
		Errors:           []string{},
		RowErrors:        plan.RowErrors,
		Warnings:         plan.Warnings,
		InsertedProducts: []CatalogEntry{},
	}

	r.phase(PhaseInserting, fmt.Sprintf("Inserting %d products in %d chunks", total, len(chunks)), 0, total)

	var (
		mu        sync.Mutex
		attempted int
		failures  = make([]string, len(chunks))
	)

	attempt := func(i int, chunk []CatalogEntryCandidate) {
		entries, err := r.importer.products.InsertProducts(ctx, chunk)

		mu.Lock()
		defer mu.Unlock()

		attempted += len(chunk)
		if err != nil {
			result.ErrorCount += len(chunk)
			failures[i] = fmt.Sprintf("chunk %d of %d (lines %d-%d): %v",
				i+1, len(chunks), chunk[0].Line, chunk[len(chunk)-1].Line, err)
			r.logger.Warn("chunk insert failed", "chunk", i+1, "rows", len(chunk), "error", err)
		} else {
			result.SuccessCount += len(chunk)
			result.InsertedProducts = append(result.InsertedProducts, entries...)
			r.logger.Debug("chunk inserted", "chunk", i+1, "rows", len(chunk))
		}
		r.progress.publish(ImportProgress{
			Phase:   PhaseInserting,
			Message: fmt.Sprintf("Inserting chunk %d of %d", i+1, len(chunks)),
			Current: attempted,
			Total:   total,
		})
	}

	if r.importer.opts.Workers <= 1 {
		for i, chunk := range chunks {
			if ctx.Err() != nil {
				break
			}
			attempt(i, chunk)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.importer.opts.Workers)
		for i, chunk := range chunks {
			if ctx.Err() != nil {
				break
			}
			i, chunk := i, chunk
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				attempt(i, chunk)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, f := range failures {
		if f != "" {
			result.Errors = append(result.Errors, f)
		}
	}
	slices.SortStableFunc(result.InsertedProducts, func(a, b CatalogEntry) int {
		return a.Line - b.Line
	})

	result.TotalProcessed = attempted
	result.NotAttempted = total - attempted
	result.Cancelled = result.NotAttempted > 0
	result.Success = result.ErrorCount == 0 && !result.Cancelled
	return result
}

// phase publishes a phase transition and logs it.
func (r *Run) phase(p Phase, msg string, current, total int) {
	r.logger.Info("import phase", "phase", p, "message", msg)
	r.progress.publish(ImportProgress{Phase: p, Message: msg, Current: current, Total: total})
}

// fail ends the run with a fatal error.
func (r *Run) fail(err error) error {
	r.logger.Error("import failed", "error", err)
	r.finish(nil, err, ImportProgress{
		Phase:   PhaseError,
		Message: strings.Join(ReasonsOf(err), "; "),
	})
	return err
}

// finish records the outcome, then publishes the terminal progress value,
// then closes Done. Subscribers that see their channel close can read the
// outcome.
func (r *Run) finish(result *ImportResult, err error, last ImportProgress) {
	r.mu.Lock()
	if r.state == StateDone {
		r.mu.Unlock()
		return
	}
	r.state = StateDone
	r.result = result
	r.err = err
	r.mu.Unlock()

	r.progress.publish(last)
	close(r.done)
}

// convertRows normalizes every row. A panic in a normalizer is reported as
// a conversion error for the offending line.
func convertRows(rows []ProductRow) (out []CatalogEntryCandidate, err error) {
	line := 0
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("line %d: conversion failed: %v", line, rec)
		}
	}()

	out = make([]CatalogEntryCandidate, len(rows))
	for i, row := range rows {
		line = row.Line
		out[i] = row.Candidate()
	}
	return out, nil
}

func categoryNames(candidates []CatalogEntryCandidate) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range candidates {
		if !seen[c.Category] {
			seen[c.Category] = true
			names = append(names, c.Category)
		}
	}
	return names
}

func missingNames(names, existing []string) []string {
	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[e] = true
	}
	missing := []string{}
	for _, n := range names {
		if !have[n] {
			missing = append(missing, n)
		}
	}
	return missing
}

func newCategories(names []string) []NewCategory {
	out := make([]NewCategory, len(names))
	for i, n := range names {
		out[i] = NewCategory{
			Name:        n,
			Description: DefaultCategoryDescription,
			Color:       DefaultCategoryColor,
			Icon:        DefaultCategoryIcon,
			IsActive:    true,
		}
	}
	return out
}

func chunkCandidates(c []CatalogEntryCandidate, size int) [][]CatalogEntryCandidate {
	var chunks [][]CatalogEntryCandidate
	for start := 0; start < len(c); start += size {
		chunks = append(chunks, c[start:min(start+size, len(c))])
	}
	return chunks
}

func awaitingMessage(p *Plan) string {
	if len(p.Missing) == 0 {
		return fmt.Sprintf("Ready to insert %d products", len(p.Candidates))
	}
	return fmt.Sprintf("%d categories need to be created: %s", len(p.Missing), strings.Join(p.Missing, ", "))
}
