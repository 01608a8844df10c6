package tpch

import (
	"errors"
	"strings"
)

// Sentinel errors for the failure classes of a pipeline run.
// Callers distinguish them with errors.Is().
//
// Fatal classes (ErrInvalidConfig, ErrConnectionFailed, ErrSchema) abort the run.
// Per-item classes (ErrLoad, ErrQuery, ErrVerificationMismatch) are recorded in
// LoadResult and QueryResult and the run continues.
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the warehouse session could not be established.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrSchema indicates the DDL script could not be applied in full.
	ErrSchema = errors.New("schema apply failed")

	// ErrLoad indicates a table could not be loaded.
	ErrLoad = errors.New("load failed")

	// ErrQuery indicates an analytical query failed.
	ErrQuery = errors.New("query failed")

	// ErrVerificationMismatch indicates a table's post-load row count was zero
	// or could not be read.
	ErrVerificationMismatch = errors.New("verification mismatch")

	// ErrIncomplete indicates the run reached the end but recorded failures.
	ErrIncomplete = errors.New("run incomplete")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrSchema):
		return ExitSchemaError
	case errors.Is(err, ErrIncomplete),
		errors.Is(err, ErrLoad),
		errors.Is(err, ErrQuery),
		errors.Is(err, ErrVerificationMismatch):
		return ExitIncomplete
	}

	errStr := err.Error()
	if isUsageMessage(errStr) {
		return ExitUsageError
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageMessage recognizes the argument and flag errors produced by cobra.
func isUsageMessage(msg string) bool {
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "invalid argument", "flag needs an argument", "required flag"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
