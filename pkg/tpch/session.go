package tpch

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is the single live connection to the warehouse.
// Every stage of a run issues its statements through one Session.
//
// Thread-Safety: NOT safe for concurrent use. Only one statement may be in
// flight at a time.
type Session interface {
	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query expected to return at most one row.
	// Errors are deferred until Row.Scan is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Query executes a query and returns its rows. The caller must Close them.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// ExecBatch sends all statements to the server in a single round-trip and
	// returns the first failure. A failure leaves none of the batch applied.
	ExecBatch(ctx context.Context, statements []string) error
}

// Row represents a single row returned by QueryRow.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a forward-only cursor over a query result.
type Rows interface {
	// Columns returns the result column names in order.
	Columns() []string
	Next() bool
	// Values returns the decoded values of the current row.
	Values() ([]any, error)
	Err() error
	Close()
}

// SessionProvider is the Connection Manager contract.
type SessionProvider interface {
	// Acquire returns the live session, opening it on first use.
	// Calling Acquire again returns the same session.
	Acquire(ctx context.Context) (Session, error)

	// Release closes the session. Safe to call repeatedly or before Acquire.
	Release() error
}

// Connector establishes a connection pool using one authentication method.
type Connector interface {
	// Connect establishes a connection pool to the database.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// ErrorClassifier determines whether an error is transient (retryable) or fatal.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the wait before retry number attempt (zero-indexed).
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the retry budget (0 = no retries, -1 = unlimited).
	MaxAttempts() int
}
