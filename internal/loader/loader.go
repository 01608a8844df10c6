package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// Loader loads tables parents-first with one Strategy.
type Loader struct {
	strategy Strategy
	logger   tpch.Logger
	failFast bool
	now      func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithFailFast stops loading after the first failed table; the remaining
// tables are reported as skipped.
func WithFailFast(enabled bool) Option {
	return func(l *Loader) { l.failFast = enabled }
}

// New creates a Loader. Panics if strategy or logger is nil.
func New(strategy Strategy, logger tpch.Logger, opts ...Option) *Loader {
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	l := &Loader{strategy: strategy, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads every table in ascending rank and returns one result per table
// in load order. A failed table does not stop the loop unless fail-fast is
// set. Cancellation marks the tables not yet started as failed.
func (l *Loader) Load(ctx context.Context, session tpch.Session, specs []tpch.TableSpec) []tpch.LoadResult {
	ordered := tpch.SortByRank(specs, false)
	results := make([]tpch.LoadResult, 0, len(ordered))

	stop := false
	for _, spec := range ordered {
		if stop {
			results = append(results, tpch.LoadResult{Table: spec.Name, Strategy: l.strategy.Kind(), Skipped: true})
			l.logger.Warn("Skipping %s after an earlier failure", spec.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			results = append(results, tpch.LoadResult{
				Table:    spec.Name,
				Strategy: l.strategy.Kind(),
				Err:      fmt.Errorf("%w: %w", tpch.ErrLoad, err),
			})
			continue
		}

		res := l.LoadTable(ctx, session, spec)
		results = append(results, res)
		if res.Err != nil && l.failFast {
			stop = true
		}
	}
	return results
}

// LoadTable loads a single table and verifies it. Verification runs even
// after a failed load so the report shows what actually landed.
func (l *Loader) LoadTable(ctx context.Context, session tpch.Session, spec tpch.TableSpec) tpch.LoadResult {
	res := tpch.LoadResult{Table: spec.Name, Strategy: l.strategy.Kind()}

	l.logger.Info("Loading %s (%s)...", spec.Name, l.strategy.Kind())
	start := l.now()
	if err := l.strategy.LoadTable(ctx, session, spec); err != nil {
		res.Err = fmt.Errorf("%w: %w", tpch.ErrLoad, err)
		l.logger.Error("Failed to load %s: %v", spec.Name, err)
	}
	res.Elapsed = l.now().Sub(start)

	n, err := CountRows(ctx, session, spec.Name)
	switch {
	case err != nil:
		res.Warning = fmt.Errorf("%w: row count for %s failed: %w", tpch.ErrVerificationMismatch, spec.Name, err)
	case n == 0:
		res.Warning = fmt.Errorf("%w: %s has no rows after load", tpch.ErrVerificationMismatch, spec.Name)
	default:
		res.RowsLoaded = n
		res.Verified = true
	}
	if res.Warning != nil {
		l.logger.Warn("%v", res.Warning)
	}

	if res.Err == nil {
		l.logger.Info("Loaded %s: %d rows in %.3fs", spec.Name, res.RowsLoaded, res.Elapsed.Seconds())
	}
	return res
}
