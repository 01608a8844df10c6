// Package schema tears down and rebuilds the TPC-H tables.
//
// Resetter drops tables child-first so no drop is blocked by a dependent
// table, and records whether each table was dropped, already absent, or
// failed. Builder applies a DDL script statement by statement and stops at
// the first failure.
package schema
