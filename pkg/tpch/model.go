package tpch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TableSpec describes one pipeline-owned table.
//
// Rank orders tables by foreign-key dependency: a table's Rank is strictly
// greater than the Rank of every table it references. Tables are dropped in
// descending Rank and loaded in ascending Rank.
type TableSpec struct {
	Name       string
	Rank       int
	SourceFile string   // dbgen output name, e.g. "lineitem.tbl"
	References []string // tables referenced by foreign key
}

// BatchFile returns the name of the insert-statement file used by the
// batched-insert strategy, e.g. "lineitem.sql".
func (t TableSpec) BatchFile() string {
	return strings.TrimSuffix(t.SourceFile, ".tbl") + ".sql"
}

// DefaultTables returns the eight TPC-H tables in load order.
func DefaultTables() []TableSpec {
	return []TableSpec{
		{Name: "REGION", Rank: 1, SourceFile: "region.tbl"},
		{Name: "NATION", Rank: 2, SourceFile: "nation.tbl", References: []string{"REGION"}},
		{Name: "SUPPLIER", Rank: 3, SourceFile: "supplier.tbl", References: []string{"NATION"}},
		{Name: "PART", Rank: 4, SourceFile: "part.tbl"},
		{Name: "PARTSUPP", Rank: 5, SourceFile: "partsupp.tbl", References: []string{"PART", "SUPPLIER"}},
		{Name: "CUSTOMER", Rank: 6, SourceFile: "customer.tbl", References: []string{"NATION"}},
		{Name: "ORDERS", Rank: 7, SourceFile: "orders.tbl", References: []string{"CUSTOMER"}},
		{Name: "LINEITEM", Rank: 8, SourceFile: "lineitem.tbl", References: []string{"ORDERS", "PART", "SUPPLIER"}},
	}
}

// SortByRank returns a copy of specs ordered by Rank, ascending or descending.
func SortByRank(specs []TableSpec, descending bool) []TableSpec {
	sorted := make([]TableSpec, len(specs))
	copy(sorted, specs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return sorted[i].Rank > sorted[j].Rank
		}
		return sorted[i].Rank < sorted[j].Rank
	})
	return sorted
}

// ValidateTables checks names and the rank invariant of a table set.
func ValidateTables(specs []TableSpec) error {
	var errs []error
	byName := make(map[string]TableSpec, len(specs))
	for _, s := range specs {
		if !IsPlainIdentifier(s.Name) {
			errs = append(errs, fmt.Errorf("table name %q is not a plain identifier: %w", s.Name, ErrInvalidConfig))
			continue
		}
		if _, dup := byName[strings.ToUpper(s.Name)]; dup {
			errs = append(errs, fmt.Errorf("table %s declared twice: %w", s.Name, ErrInvalidConfig))
		}
		byName[strings.ToUpper(s.Name)] = s
	}
	for _, s := range specs {
		for _, ref := range s.References {
			parent, ok := byName[strings.ToUpper(ref)]
			if !ok {
				errs = append(errs, fmt.Errorf("table %s references unknown table %s: %w", s.Name, ref, ErrInvalidConfig))
				continue
			}
			if parent.Rank >= s.Rank {
				errs = append(errs, fmt.Errorf("table %s (rank %d) must rank above %s (rank %d): %w",
					s.Name, s.Rank, parent.Name, parent.Rank, ErrInvalidConfig))
			}
		}
	}
	return errors.Join(errs...)
}

// IsPlainIdentifier reports whether name can be used unquoted in SQL.
// Table names are interpolated unquoted so the server applies its own case folding.
func IsPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// DropOutcome is the result of dropping one table during reset.
type DropOutcome int

const (
	DropDropped DropOutcome = iota // table existed and was dropped
	DropAbsent                     // table did not exist
	DropFailed                     // drop failed for another reason
)

// String returns a human-readable string representation of the DropOutcome.
func (o DropOutcome) String() string {
	switch o {
	case DropDropped:
		return "dropped"
	case DropAbsent:
		return "absent"
	case DropFailed:
		return "failed"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// TableDropResult records the outcome of dropping a single table.
type TableDropResult struct {
	Table   string
	Outcome DropOutcome
	Err     error
}

// ResetResult aggregates the per-table outcomes of a schema reset in drop order.
type ResetResult struct {
	Tables []TableDropResult
}

// Err joins every per-table failure, or returns nil if none failed.
func (r ResetResult) Err() error {
	var errs []error
	for _, t := range r.Tables {
		if t.Outcome == DropFailed {
			errs = append(errs, fmt.Errorf("drop %s: %w", t.Table, t.Err))
		}
	}
	return errors.Join(errs...)
}

// LoadResult is produced once per table per run by the Bulk Loader.
type LoadResult struct {
	Table      string
	Strategy   Strategy
	RowsLoaded int64
	Elapsed    time.Duration
	Verified   bool  // the verification count succeeded and was non-zero
	Skipped    bool  // not attempted because fail-fast stopped the run
	Err        error // wraps ErrLoad when the load itself failed
	Warning    error // wraps ErrVerificationMismatch
}

// Failed reports whether the table load failed or was skipped.
func (r LoadResult) Failed() bool {
	return r.Err != nil || r.Skipped
}

// Status returns the one-word status used in reports.
func (r LoadResult) Status() string {
	switch {
	case r.Skipped:
		return "SKIPPED"
	case r.Err != nil:
		return "FAILED"
	case r.Warning != nil:
		return "MISMATCH"
	default:
		return "OK"
	}
}

// QuerySpec is one of the fixed analytical queries.
type QuerySpec struct {
	ID     string
	Title  string
	SQL    string
	RowCap int // maximum rows materialized and printed
}

// RowSet holds a query's column names, materialized rows, and true match count.
// TotalRows may exceed len(Rows) when materialization was capped.
type RowSet struct {
	Columns   []string
	Rows      [][]any
	TotalRows int
}

// Truncated reports whether fewer rows were materialized than matched.
func (rs RowSet) Truncated() bool {
	return rs.TotalRows > len(rs.Rows)
}

// QueryResult is the outcome of running one QuerySpec.
type QueryResult struct {
	Spec    QuerySpec
	RowSet  RowSet
	Elapsed time.Duration
	Err     error // wraps ErrQuery
}
