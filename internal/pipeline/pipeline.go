package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/vvka-141/tpchload/internal/loader"
	"github.com/vvka-141/tpchload/internal/query"
	"github.com/vvka-141/tpchload/internal/retry"
	"github.com/vvka-141/tpchload/internal/schema"
	"github.com/vvka-141/tpchload/internal/sqlscript"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

// Orchestrator runs the pipeline stages against sessions from a provider.
//
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type Orchestrator struct {
	provider tpch.SessionProvider
	logger   tpch.Logger

	backoff tpch.BackoffStrategy
	dataFS  fs.FS
	queries []tpch.QuerySpec
	now     func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBackoff replaces the connect retry schedule built from the run config.
func WithBackoff(b tpch.BackoffStrategy) Option {
	return func(o *Orchestrator) { o.backoff = b }
}

// WithDataFS makes the batch strategy read from fsys instead of the
// configured data directory.
func WithDataFS(fsys fs.FS) Option {
	return func(o *Orchestrator) { o.dataFS = fsys }
}

// WithQueries replaces the fixed query set.
func WithQueries(specs []tpch.QuerySpec) Option {
	return func(o *Orchestrator) { o.queries = specs }
}

// New creates an Orchestrator. Panics if provider or logger is nil.
func New(provider tpch.SessionProvider, logger tpch.Logger, opts ...Option) *Orchestrator {
	if provider == nil {
		panic("provider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	o := &Orchestrator{
		provider: provider,
		logger:   logger,
		queries:  query.Fixed(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the stages selected in cfg and always returns a report. A
// run that aborted has report.Fatal set; report.Err() summarizes both fatal
// and recorded failures.
func (o *Orchestrator) Run(ctx context.Context, cfg tpch.PipelineConfig) *tpch.RunReport {
	started := o.now()
	rep := &tpch.RunReport{RunID: cfg.RunID, Started: started}
	if cfg.Connection != nil {
		rep.Target = cfg.Connection.String()
	}
	if cfg.Stages.Load {
		rep.Strategy = cfg.Strategy
	}
	defer func() { rep.Elapsed = o.now().Sub(started) }()

	if err := cfg.Validate(); err != nil {
		rep.Fatal = err
		return rep
	}

	var strategy loader.Strategy
	if cfg.Stages.Load {
		s, err := o.strategyFor(&cfg)
		if err != nil {
			rep.Fatal = err
			return rep
		}
		strategy = s
	}

	session, err := o.acquire(ctx, &cfg)
	if err != nil {
		rep.Fatal = err
		return rep
	}
	defer func() {
		if err := o.provider.Release(); err != nil {
			o.logger.Warn("Failed to release session: %v", err)
		}
	}()
	o.logger.Info("Connected to %s", rep.Target)

	if cfg.Stages.Reset {
		o.logger.Info("Dropping existing tables...")
		res := schema.NewResetter(o.logger).Reset(ctx, session, cfg.Tables)
		rep.Reset = &res
	}

	if cfg.Stages.Schema {
		o.logger.Info("Creating tables...")
		start := o.now()
		n, err := schema.NewBuilder(o.logger, scanOptions(&cfg)...).Apply(ctx, session, cfg.DDL)
		rep.Schema = &tpch.StageResult{Statements: n, Elapsed: o.now().Sub(start), Err: err}
		if err != nil {
			o.logger.Error("%v", err)
			rep.Fatal = err
			return rep
		}
	}

	if cfg.Stages.Load {
		o.logger.Info("Loading %d tables using the %s strategy...", len(cfg.Tables), strategy.Kind())
		l := loader.New(strategy, o.logger, loader.WithFailFast(cfg.FailFast))
		rep.Loads = l.Load(ctx, session, cfg.Tables)
	}

	if cfg.Stages.Query {
		o.logger.Info("Running %d queries...", len(o.queries))
		rep.Queries = query.NewRunner(o.logger).RunAll(ctx, session, o.queries)
	}

	if err := ctx.Err(); err != nil {
		rep.Fatal = fmt.Errorf("run interrupted: %w", err)
	}
	return rep
}

// acquire opens the session, retrying transient connection failures.
func (o *Orchestrator) acquire(ctx context.Context, cfg *tpch.PipelineConfig) (tpch.Session, error) {
	backoff := o.backoff
	if backoff == nil {
		backoff = retry.NewExponentialBackoff(cfg.ConnectRetries,
			retry.WithInitialDelay(tpch.DefaultRetryInitialDelay),
			retry.WithMaxDelay(tpch.DefaultRetryMaxDelay),
		)
	}
	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), backoff).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			o.logger.Warn("Connection attempt %d failed: %v (retrying in %s)", attempt+1, err, delay)
		})

	var session tpch.Session
	err := executor.Execute(ctx, func(ctx context.Context) error {
		s, err := o.provider.Acquire(ctx)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		if !errors.Is(err, tpch.ErrConnectionFailed) {
			err = fmt.Errorf("%w: %w", tpch.ErrConnectionFailed, err)
		}
		return nil, err
	}
	return session, nil
}

func (o *Orchestrator) strategyFor(cfg *tpch.PipelineConfig) (loader.Strategy, error) {
	switch cfg.Strategy {
	case tpch.StrategyCopy:
		return loader.NewCopyStrategy(cfg.Copy, o.logger), nil
	case tpch.StrategyBatch:
		fsys := o.dataFS
		if fsys == nil {
			info, err := os.Stat(cfg.DataDir)
			if err != nil {
				return nil, fmt.Errorf("data directory %s: %w: %w", cfg.DataDir, err, tpch.ErrInvalidConfig)
			}
			if !info.IsDir() {
				return nil, fmt.Errorf("data directory %s is not a directory: %w", cfg.DataDir, tpch.ErrInvalidConfig)
			}
			fsys = os.DirFS(cfg.DataDir)
		}
		return loader.NewBatchStrategy(fsys, cfg.BatchSize, o.logger, scanOptions(cfg)...), nil
	default:
		return nil, fmt.Errorf("unknown load strategy %q: %w", cfg.Strategy, tpch.ErrInvalidConfig)
	}
}

// scanOptions selects how the DDL and insert files are split.
func scanOptions(cfg *tpch.PipelineConfig) []sqlscript.Option {
	if cfg.BackslashEscapes {
		return []sqlscript.Option{sqlscript.WithBackslashEscapes()}
	}
	return nil
}
