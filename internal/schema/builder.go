package schema

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/vvka-141/tpchload/internal/sqlscript"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

// DefaultDDL creates the eight TPC-H tables with their keys.
//
//go:embed ddl/tpch_create.sql
var DefaultDDL string

// LoadDDL returns the script at path, or DefaultDDL when path is empty.
func LoadDDL(path string) (string, error) {
	if path == "" {
		return DefaultDDL, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read DDL file %s: %w", path, err)
	}
	return string(data), nil
}

// Builder applies DDL scripts.
type Builder struct {
	logger   tpch.Logger
	scanOpts []sqlscript.Option
}

// NewBuilder creates a Builder. opts control how scripts are split.
// Panics if logger is nil.
func NewBuilder(logger tpch.Logger, opts ...sqlscript.Option) *Builder {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Builder{logger: logger, scanOpts: opts}
}

// Apply executes each statement of ddl in file order and returns how many
// ran. The script is split before anything executes, so an unterminated
// quote fails without side effects. The first failing statement aborts the
// build with tpch.ErrSchema.
func (b *Builder) Apply(ctx context.Context, session tpch.Session, ddl string) (int, error) {
	stmts, err := sqlscript.Split(ddl, b.scanOpts...)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot split DDL script: %w", tpch.ErrSchema, err)
	}

	applied := 0
	for _, stmt := range stmts {
		if err := b.exec(ctx, session, stmt); err != nil {
			return applied, err
		}
		applied++
	}
	return b.finish(applied)
}

func (b *Builder) exec(ctx context.Context, session tpch.Session, stmt sqlscript.Statement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.logger.Verbose("Executing DDL statement %d (line %d): %s", stmt.Ordinal, stmt.Line, sqlscript.Preview(stmt.SQL, 80))
	if _, err := session.Exec(ctx, stmt.SQL); err != nil {
		return fmt.Errorf("%w: statement %d (line %d) failed: %s: %w",
			tpch.ErrSchema, stmt.Ordinal, stmt.Line, sqlscript.Preview(stmt.SQL, tpch.MaxErrorPreviewLength), err)
	}
	return nil
}

func (b *Builder) finish(applied int) (int, error) {
	if applied == 0 {
		return 0, fmt.Errorf("%w: DDL script contains no statements", tpch.ErrSchema)
	}
	b.logger.Info("Schema created (%d statements)", applied)
	return applied, nil
}
