package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// ConnSession adapts a dedicated *pgxpool.Conn to tpch.Session. Holding the
// conn pins every statement of the run to one server session.
//
// Thread-Safety: NOT safe for concurrent use, like the connection it wraps.
type ConnSession struct {
	conn *pgxpool.Conn
}

// NewConnSession wraps conn.
func NewConnSession(conn *pgxpool.Conn) *ConnSession {
	return &ConnSession{conn: conn}
}

func (s *ConnSession) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return s.conn.Exec(ctx, sql, args...)
}

func (s *ConnSession) QueryRow(ctx context.Context, sql string, args ...any) tpch.Row {
	return s.conn.QueryRow(ctx, sql, args...)
}

func (s *ConnSession) Query(ctx context.Context, sql string, args ...any) (tpch.Rows, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{rows: rows}, nil
}

// ExecBatch sends every statement in one simple-protocol Query message, so
// a flush is one round-trip and leaves no prepared statements on the server.
// The server runs the message as one implicit transaction: when a statement
// fails, none of the batch is applied.
func (s *ConnSession) ExecBatch(ctx context.Context, statements []string) error {
	if len(statements) == 0 {
		return nil
	}

	mrr := s.conn.Conn().PgConn().Exec(ctx, strings.Join(statements, ";\n"))
	completed := 0
	for mrr.NextResult() {
		if _, err := mrr.ResultReader().Close(); err != nil {
			_ = mrr.Close()
			return fmt.Errorf("batch statement %d of %d: %w", completed+1, len(statements), err)
		}
		completed++
	}
	if err := mrr.Close(); err != nil {
		return fmt.Errorf("batch statement %d of %d: %w", min(completed+1, len(statements)), len(statements), err)
	}
	return nil
}

// Release returns the connection to its pool.
func (s *ConnSession) Release() {
	s.conn.Release()
}

type rowsAdapter struct {
	rows    pgx.Rows
	columns []string
}

func (r *rowsAdapter) Columns() []string {
	if r.columns == nil {
		fields := r.rows.FieldDescriptions()
		r.columns = make([]string, len(fields))
		for i, f := range fields {
			r.columns[i] = f.Name
		}
	}
	return r.columns
}

func (r *rowsAdapter) Next() bool             { return r.rows.Next() }
func (r *rowsAdapter) Values() ([]any, error) { return r.rows.Values() }
func (r *rowsAdapter) Err() error             { return r.rows.Err() }
func (r *rowsAdapter) Close()                 { r.rows.Close() }

var _ tpch.Session = (*ConnSession)(nil)
