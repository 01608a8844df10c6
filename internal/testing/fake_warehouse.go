package testing

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

var (
	reCreate = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	reDrop   = regexp.MustCompile(`(?is)^DROP\s+TABLE\s+IF\s+EXISTS\s+([A-Za-z_][A-Za-z0-9_]*)`)
	reCopy   = regexp.MustCompile(`(?is)^COPY\s+([A-Za-z_][A-Za-z0-9_]*)\s+FROM\s+'([^']*)'`)
	reInsert = regexp.MustCompile(`(?is)^INSERT\s+INTO\s+([A-Za-z_][A-Za-z0-9_]*)`)
	reCount  = regexp.MustCompile(`(?is)^SELECT\s+COUNT\(\*\)\s+FROM\s+([A-Za-z_][A-Za-z0-9_]*)\s*$`)
)

// FakeWarehouse is an in-memory tpch.Session that understands the statements
// the loader issues: CREATE TABLE, DROP TABLE IF EXISTS, COPY, INSERT INTO
// and SELECT COUNT(*). Any other statement is rejected as a syntax error
// unless it starts with SELECT, which yields the configured query result.
//
// Batches are atomic: a failing statement leaves no rows from its batch,
// matching pgx batches sent in one implicit transaction.
type FakeWarehouse struct {
	mu sync.Mutex

	tables map[string]int64 // upper-case name -> row count

	// CopyRows maps an object URI suffix (e.g. "region.tbl") to the number of
	// rows a COPY of it adds. A COPY of an unlisted object fails.
	CopyRows map[string]int64

	// QueryResult answers SELECT queries other than counts.
	QueryResult func(sql string) (columns []string, rows [][]any, err error)

	failures []failure

	Statements []string // every statement received, in order
	Batches    []int    // size of every ExecBatch call
	Probes     int      // existence probes answered
}

type failure struct {
	substr string
	err    error
}

// NewFakeWarehouse creates an empty warehouse.
func NewFakeWarehouse() *FakeWarehouse {
	return &FakeWarehouse{tables: map[string]int64{}, CopyRows: map[string]int64{}}
}

// FailOn makes every statement containing substr fail with err.
func (w *FakeWarehouse) FailOn(substr string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures = append(w.failures, failure{substr: substr, err: err})
}

// CreateTable creates table with rows rows.
func (w *FakeWarehouse) CreateTable(table string, rows int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables[strings.ToUpper(table)] = rows
}

// HasTable reports whether table exists.
func (w *FakeWarehouse) HasTable(table string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.tables[strings.ToUpper(table)]
	return ok
}

// Rows returns the row count of table, or -1 if it does not exist.
func (w *FakeWarehouse) Rows(table string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.tables[strings.ToUpper(table)]
	if !ok {
		return -1
	}
	return n
}

// StatementsWithPrefix returns recorded statements starting with prefix.
func (w *FakeWarehouse) StatementsWithPrefix(prefix string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, s := range w.Statements {
		if strings.HasPrefix(strings.ToUpper(s), strings.ToUpper(prefix)) {
			out = append(out, s)
		}
	}
	return out
}

func (w *FakeWarehouse) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if err := ctx.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Statements = append(w.Statements, sql)
	return w.apply(w.tables, sql)
}

func (w *FakeWarehouse) ExecBatch(ctx context.Context, statements []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Batches = append(w.Batches, len(statements))

	staged := make(map[string]int64, len(w.tables))
	for k, v := range w.tables {
		staged[k] = v
	}
	for i, stmt := range statements {
		w.Statements = append(w.Statements, stmt)
		if _, err := w.apply(staged, stmt); err != nil {
			return fmt.Errorf("batch statement %d of %d: %w", i+1, len(statements), err)
		}
	}
	w.tables = staged
	return nil
}

func (w *FakeWarehouse) QueryRow(ctx context.Context, sql string, args ...any) tpch.Row {
	if err := ctx.Err(); err != nil {
		return fakeRow{err: err}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Statements = append(w.Statements, sql)
	if err := w.injected(sql); err != nil {
		return fakeRow{err: err}
	}

	if strings.Contains(sql, "information_schema.tables") && len(args) == 1 {
		w.Probes++
		name, _ := args[0].(string)
		_, ok := w.tables[strings.ToUpper(name)]
		return fakeRow{values: []any{ok}}
	}
	if m := reCount.FindStringSubmatch(strings.TrimSpace(sql)); m != nil {
		n, ok := w.tables[strings.ToUpper(m[1])]
		if !ok {
			return fakeRow{err: UndefinedTable(m[1])}
		}
		return fakeRow{values: []any{n}}
	}
	return fakeRow{err: syntaxError(sql)}
}

func (w *FakeWarehouse) Query(ctx context.Context, sql string, args ...any) (tpch.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.Statements = append(w.Statements, sql)
	injected := w.injected(sql)
	answer := w.QueryResult
	w.mu.Unlock()

	if injected != nil {
		return nil, injected
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sql)), "SELECT") {
		return nil, syntaxError(sql)
	}
	if answer == nil {
		return NewStaticRows([]string{"?column?"}, nil), nil
	}
	cols, rows, err := answer(sql)
	if err != nil {
		return nil, err
	}
	return NewStaticRows(cols, rows), nil
}

func (w *FakeWarehouse) injected(sql string) error {
	for _, f := range w.failures {
		if strings.Contains(sql, f.substr) {
			return f.err
		}
	}
	return nil
}

func (w *FakeWarehouse) apply(tables map[string]int64, sql string) (pgconn.CommandTag, error) {
	if err := w.injected(sql); err != nil {
		return pgconn.CommandTag{}, err
	}
	stmt := strings.TrimSpace(sql)

	if m := reCreate.FindStringSubmatch(stmt); m != nil {
		name := strings.ToUpper(m[1])
		if _, ok := tables[name]; ok {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "42P07", Message: fmt.Sprintf("relation %q already exists", strings.ToLower(m[1]))}
		}
		tables[name] = 0
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	}
	if m := reDrop.FindStringSubmatch(stmt); m != nil {
		delete(tables, strings.ToUpper(m[1]))
		return pgconn.NewCommandTag("DROP TABLE"), nil
	}
	if m := reCopy.FindStringSubmatch(stmt); m != nil {
		name := strings.ToUpper(m[1])
		if _, ok := tables[name]; !ok {
			return pgconn.CommandTag{}, UndefinedTable(m[1])
		}
		for suffix, n := range w.CopyRows {
			if strings.HasSuffix(m[2], suffix) {
				tables[name] += n
				return pgconn.NewCommandTag(fmt.Sprintf("COPY %d", n)), nil
			}
		}
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "XX000", Message: "S3ServiceException: The specified key does not exist: " + m[2]}
	}
	if m := reInsert.FindStringSubmatch(stmt); m != nil {
		name := strings.ToUpper(m[1])
		if _, ok := tables[name]; !ok {
			return pgconn.CommandTag{}, UndefinedTable(m[1])
		}
		tables[name]++
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.CommandTag{}, syntaxError(stmt)
}

// UndefinedTable returns the error a server reports for a missing relation.
func UndefinedTable(name string) error {
	return &pgconn.PgError{Code: "42P01", Message: fmt.Sprintf("relation %q does not exist", strings.ToLower(name))}
}

func syntaxError(sql string) error {
	word := strings.Fields(sql)
	near := ""
	if len(word) > 1 {
		near = word[1]
	}
	return &pgconn.PgError{Code: "42601", Message: fmt.Sprintf("syntax error at or near %q", near)}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		if err := assign(d, r.values[i]); err != nil {
			return err
		}
	}
	return nil
}

func assign(dest, v any) error {
	switch d := dest.(type) {
	case *bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("scan: cannot assign %T to *bool", v)
		}
		*d = b
	case *int64:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("scan: cannot assign %T to *int64", v)
		}
		*d = n
	case *any:
		*d = v
	default:
		return fmt.Errorf("scan: unsupported destination %T", dest)
	}
	return nil
}

// StaticRows is a tpch.Rows over fixed data.
type StaticRows struct {
	columns []string
	rows    [][]any
	pos     int
	err     error
	closed  bool
}

// NewStaticRows returns rows that yield data in order.
func NewStaticRows(columns []string, data [][]any) *StaticRows {
	return &StaticRows{columns: columns, rows: data, pos: -1}
}

// WithErr makes Err report err once iteration ends.
func (r *StaticRows) WithErr(err error) *StaticRows {
	r.err = err
	return r
}

func (r *StaticRows) Columns() []string { return r.columns }

func (r *StaticRows) Next() bool {
	if r.closed || r.pos+1 >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *StaticRows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, fmt.Errorf("no current row")
	}
	return r.rows[r.pos], nil
}

func (r *StaticRows) Err() error {
	if r.pos+1 >= len(r.rows) {
		return r.err
	}
	return nil
}

func (r *StaticRows) Close() { r.closed = true }

// Closed reports whether Close was called.
func (r *StaticRows) Closed() bool { return r.closed }

var _ tpch.Session = (*FakeWarehouse)(nil)
