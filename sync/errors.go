package sync

import (
	"errors"
	"fmt"

	"github.com/c360studio/ontosync/diff"
)

// ErrConflict is returned when both serializations were modified since the
// last recorded sync and neither side can be trusted as the source.
var ErrConflict = errors.New("both serializations modified since last sync")

// ConflictError carries the diff report alongside ErrConflict so callers
// can surface the disagreement for manual resolution.
type ConflictError struct {
	Left   string
	Right  string
	Report *diff.Report
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict between %s and %s: %d added, %d removed since divergence",
		e.Left, e.Right, len(e.Report.Added), len(e.Report.Removed))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
