package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

const (
	queryTableExists = `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1
	)`

	pgCodeUndefinedTable = "42P01"
)

// DropStatement returns the drop statement for a table.
func DropStatement(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)
}

// Resetter drops pipeline tables in reverse dependency order.
type Resetter struct {
	logger tpch.Logger
}

// NewResetter creates a Resetter. Panics if logger is nil.
func NewResetter(logger tpch.Logger) *Resetter {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Resetter{logger: logger}
}

// Reset drops every table in specs, highest rank first. A failed drop is
// recorded and the remaining tables are still attempted; a missing table is
// not a failure. Only context cancellation stops the loop early, and tables
// not reached are then recorded as failed.
func (r *Resetter) Reset(ctx context.Context, session tpch.Session, specs []tpch.TableSpec) tpch.ResetResult {
	ordered := tpch.SortByRank(specs, true)
	result := tpch.ResetResult{Tables: make([]tpch.TableDropResult, 0, len(ordered))}

	for _, spec := range ordered {
		if err := ctx.Err(); err != nil {
			result.Tables = append(result.Tables, tpch.TableDropResult{Table: spec.Name, Outcome: tpch.DropFailed, Err: err})
			continue
		}

		res := r.dropTable(ctx, session, spec.Name)
		switch res.Outcome {
		case tpch.DropDropped:
			r.logger.Info("Dropped %s", spec.Name)
		case tpch.DropAbsent:
			r.logger.Verbose("%s does not exist", spec.Name)
		case tpch.DropFailed:
			r.logger.Warn("Failed to drop %s: %v", spec.Name, res.Err)
		}
		result.Tables = append(result.Tables, res)
	}
	return result
}

func (r *Resetter) dropTable(ctx context.Context, session tpch.Session, table string) tpch.TableDropResult {
	res := tpch.TableDropResult{Table: table}

	var exists bool
	probeErr := session.QueryRow(ctx, queryTableExists, strings.ToLower(table)).Scan(&exists)
	if probeErr != nil {
		// Without the probe the outcome is inferred from the drop alone.
		r.logger.Verbose("existence probe for %s failed: %v", table, probeErr)
		exists = true
	}

	stmt := DropStatement(table)
	r.logger.Verbose("Executing: %s", stmt)
	if _, err := session.Exec(ctx, stmt); err != nil {
		if isUndefinedTable(err) {
			res.Outcome = tpch.DropAbsent
			return res
		}
		res.Outcome = tpch.DropFailed
		res.Err = err
		return res
	}

	if exists {
		res.Outcome = tpch.DropDropped
	} else {
		res.Outcome = tpch.DropAbsent
	}
	return res
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeUndefinedTable
}
