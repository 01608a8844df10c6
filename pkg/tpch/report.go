package tpch

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunReport collects everything a run produced, including partial results
// of a run that stopped on a fatal error.
type RunReport struct {
	RunID    uuid.UUID
	Target   string
	Strategy Strategy
	Started  time.Time
	Elapsed  time.Duration

	Reset   *ResetResult // nil when the stage did not run
	Schema  *StageResult
	Loads   []LoadResult
	Queries []QueryResult

	// Fatal is the error that aborted the run, if any.
	Fatal error
}

// StageResult records a stage that either completes or fails as a whole.
type StageResult struct {
	Statements int
	Elapsed    time.Duration
	Err        error
}

// FailedLoads counts tables whose load failed or was skipped.
func (r *RunReport) FailedLoads() int {
	n := 0
	for _, l := range r.Loads {
		if l.Failed() {
			n++
		}
	}
	return n
}

// Mismatches counts tables flagged with a verification mismatch.
func (r *RunReport) Mismatches() int {
	n := 0
	for _, l := range r.Loads {
		if l.Warning != nil {
			n++
		}
	}
	return n
}

// FailedQueries counts queries that returned an error.
func (r *RunReport) FailedQueries() int {
	n := 0
	for _, q := range r.Queries {
		if q.Err != nil {
			n++
		}
	}
	return n
}

// Succeeded reports whether the run finished with no fatal error and no
// recorded failure of any kind.
func (r *RunReport) Succeeded() bool {
	return r.Err() == nil
}

// Err summarizes the run as a single error suitable for the exit code:
// the fatal error when the run aborted, otherwise ErrIncomplete wrapping
// every recorded failure, otherwise nil.
func (r *RunReport) Err() error {
	if r.Fatal != nil {
		return r.Fatal
	}

	var errs []error
	if r.Reset != nil {
		if err := r.Reset.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, l := range r.Loads {
		switch {
		case l.Err != nil:
			errs = append(errs, fmt.Errorf("table %s: %w", l.Table, l.Err))
		case l.Skipped:
			errs = append(errs, fmt.Errorf("table %s: skipped: %w", l.Table, ErrLoad))
		case l.Warning != nil:
			errs = append(errs, fmt.Errorf("table %s: %w", l.Table, l.Warning))
		}
	}
	for _, q := range r.Queries {
		if q.Err != nil {
			errs = append(errs, q.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrIncomplete, errors.Join(errs...))
}

// Status returns SUCCESS, PARTIAL, or FAILED.
func (r *RunReport) Status() string {
	switch {
	case r.Fatal != nil:
		return "FAILED"
	case r.Err() != nil:
		return "PARTIAL"
	default:
		return "SUCCESS"
	}
}
