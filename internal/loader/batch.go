package loader

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/vvka-141/tpchload/internal/sqlscript"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

// BatchStrategy executes a table's <name>.sql file of INSERT statements,
// sending them in batches of a fixed size.
type BatchStrategy struct {
	fsys      fs.FS
	batchSize int
	logger    tpch.Logger
	scanOpts  []sqlscript.Option
}

// NewBatchStrategy creates a BatchStrategy reading from fsys.
// A non-positive batchSize selects tpch.DefaultBatchSize. opts control how
// the files are split into statements. Panics if fsys or logger is nil.
func NewBatchStrategy(fsys fs.FS, batchSize int, logger tpch.Logger, opts ...sqlscript.Option) *BatchStrategy {
	if fsys == nil {
		panic("fsys cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if batchSize <= 0 {
		batchSize = tpch.DefaultBatchSize
	}
	return &BatchStrategy{fsys: fsys, batchSize: batchSize, logger: logger, scanOpts: opts}
}

func (s *BatchStrategy) Kind() tpch.Strategy { return tpch.StrategyBatch }

// LoadTable streams the file so memory stays bounded by one batch. Batches
// already sent stay applied when a later one fails.
func (s *BatchStrategy) LoadTable(ctx context.Context, session tpch.Session, spec tpch.TableSpec) error {
	name := spec.BatchFile()
	f, err := s.fsys.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	sc := sqlscript.NewScanner(f, s.scanOpts...)
	pending := make([]string, 0, s.batchSize)
	flushes, sent := 0, 0

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		flushes++
		if err := session.ExecBatch(ctx, pending); err != nil {
			return fmt.Errorf("%s batch %d (statements %d-%d): %w",
				name, flushes, sent+1, sent+len(pending), err)
		}
		sent += len(pending)
		s.logger.Verbose("%s: flushed batch %d (%d statements, %d total)", spec.Name, flushes, len(pending), sent)
		pending = pending[:0]
		return nil
	}

	for sc.Next() {
		pending = append(pending, sc.Statement().SQL)
		if len(pending) == s.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := flush(); err != nil {
		return err
	}

	if sent == 0 {
		s.logger.Warn("%s contains no statements", name)
	}
	return nil
}
