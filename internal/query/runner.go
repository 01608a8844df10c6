package query

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// Runner executes QuerySpecs.
type Runner struct {
	logger tpch.Logger
}

// NewRunner creates a Runner. Panics if logger is nil.
func NewRunner(logger tpch.Logger) *Runner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Runner{logger: logger}
}

// Run executes spec and materializes at most spec.RowCap rows. Iteration
// continues past the cap so TotalRows is the true match count. A RowCap of
// zero or less materializes every row.
func (r *Runner) Run(ctx context.Context, session tpch.Session, spec tpch.QuerySpec) (tpch.RowSet, error) {
	rows, err := session.Query(ctx, spec.SQL)
	if err != nil {
		return tpch.RowSet{}, fmt.Errorf("%w: %s: %w", tpch.ErrQuery, spec.ID, err)
	}
	defer rows.Close()

	rs := tpch.RowSet{Columns: rows.Columns()}
	for rows.Next() {
		rs.TotalRows++
		if spec.RowCap > 0 && len(rs.Rows) >= spec.RowCap {
			continue
		}
		values, err := rows.Values()
		if err != nil {
			return tpch.RowSet{}, fmt.Errorf("%w: %s: row %d: %w", tpch.ErrQuery, spec.ID, rs.TotalRows, err)
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return tpch.RowSet{}, fmt.Errorf("%w: %s: %w", tpch.ErrQuery, spec.ID, err)
	}
	return rs, nil
}

// RunAll runs every spec in order. A failing query is recorded in its
// result and the rest still run.
func (r *Runner) RunAll(ctx context.Context, session tpch.Session, specs []tpch.QuerySpec) []tpch.QueryResult {
	results := make([]tpch.QueryResult, 0, len(specs))
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			results = append(results, tpch.QueryResult{Spec: spec, Err: fmt.Errorf("%w: %s: %w", tpch.ErrQuery, spec.ID, err)})
			continue
		}

		r.logger.Info("Executing query %s...", spec.ID)
		start := time.Now()
		rs, err := r.Run(ctx, session, spec)
		res := tpch.QueryResult{Spec: spec, RowSet: rs, Elapsed: time.Since(start), Err: err}
		if err != nil {
			r.logger.Error("Query %s failed: %v", spec.ID, err)
		} else {
			r.logger.Verbose("Query %s returned %d rows in %.3fs", spec.ID, rs.TotalRows, res.Elapsed.Seconds())
		}
		results = append(results, res)
	}
	return results
}
