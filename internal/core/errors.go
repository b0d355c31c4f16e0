package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTooManyImports is returned when the concurrent import limit is reached.
	ErrTooManyImports = errors.New("too many imports in progress, please try again later")

	// ErrImportNotFound is returned for unknown or expired import IDs.
	ErrImportNotFound = errors.New("import not found")

	// ErrNotAwaitingConfirmation is returned by Resume and Confirm when the run
	// is not suspended on a category question.
	ErrNotAwaitingConfirmation = errors.New("import is not awaiting confirmation")

	// ErrCategoriesDeclined ends a run whose missing categories were not
	// approved for creation.
	ErrCategoriesDeclined = errors.New("category creation declined")

	// ErrImportInProgress is returned when a result is requested before the
	// run is done.
	ErrImportInProgress = errors.New("import still in progress")

	// ErrImportCancelled ends a run stopped between chunks.
	ErrImportCancelled = errors.New("import cancelled")
)

// ErrorKind classifies a fatal pipeline failure.
type ErrorKind string

const (
	KindFile       ErrorKind = "file"
	KindStructural ErrorKind = "structural"
	KindConversion ErrorKind = "conversion"
	KindCategories ErrorKind = "categories"
	KindCancelled  ErrorKind = "cancelled"
	KindDeclined   ErrorKind = "declined"
)

// PipelineError is a fatal failure of a run, carrying every reason at once.
type PipelineError struct {
	Phase   Phase
	Kind    ErrorKind
	Reasons []string
	Err     error // underlying cause, if any
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed during %s: %s", e.Kind, e.Phase, strings.Join(e.Reasons, "; "))
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func newPipelineError(phase Phase, kind ErrorKind, err error, reasons ...string) *PipelineError {
	if len(reasons) == 0 && err != nil {
		reasons = []string{err.Error()}
	}
	return &PipelineError{Phase: phase, Kind: kind, Reasons: reasons, Err: err}
}

// ReasonsOf returns the reasons of a PipelineError, or the error text for any
// other error.
func ReasonsOf(err error) []string {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Reasons
	}
	return []string{err.Error()}
}
