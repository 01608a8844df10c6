package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tpchload/internal/logging"
	"github.com/vvka-141/tpchload/internal/retry"
	"github.com/vvka-141/tpchload/internal/schema"
	testhelpers "github.com/vvka-141/tpchload/internal/testing"
	"github.com/vvka-141/tpchload/internal/testing/fixtures"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

func copyConfig() tpch.PipelineConfig {
	return tpch.PipelineConfig{
		RunID:      uuid.New(),
		Connection: &tpch.ConnectionConfig{Host: "example.redshift.amazonaws.com", Port: 5439, Database: "dev", Username: "awsuser"},
		Stages:     tpch.AllStages(),
		Tables:     tpch.DefaultTables(),
		DDL:        schema.DefaultDDL,
		Strategy:   tpch.StrategyCopy,
		Copy:       tpch.CopySource{Bucket: "tpch", Prefix: "sf1", IAMRoleARN: "arn:aws:iam::123456789012:role/r"},
		BatchSize:  tpch.DefaultBatchSize,
	}
}

func stockedWarehouse(rows int64) *testhelpers.FakeWarehouse {
	w := testhelpers.NewFakeWarehouse()
	for _, spec := range tpch.DefaultTables() {
		w.CopyRows[spec.SourceFile] = rows
	}
	w.QueryResult = func(string) ([]string, [][]any, error) {
		return []string{"o_orderpriority", "num_items"}, [][]any{{"1-URGENT", int64(3)}}, nil
	}
	return w
}

func fastBackoff() tpch.BackoffStrategy {
	return retry.NewExponentialBackoff(3, retry.WithInitialDelay(time.Millisecond), retry.WithJitter(0))
}

func TestRun_CleanRun(t *testing.T) {
	w := stockedWarehouse(25)
	provider := &stubProvider{session: w}

	rep := New(provider, logging.NewNullLogger()).Run(context.Background(), copyConfig())

	require.NoError(t, rep.Err())
	assert.True(t, rep.Succeeded())
	assert.Equal(t, "SUCCESS", rep.Status())
	assert.Equal(t, tpch.ExitSuccess, tpch.ExitCodeForError(rep.Err()))

	require.NotNil(t, rep.Reset)
	for _, d := range rep.Reset.Tables {
		assert.Equal(t, tpch.DropAbsent, d.Outcome)
	}
	require.NotNil(t, rep.Schema)
	assert.Equal(t, 8, rep.Schema.Statements)

	require.Len(t, rep.Loads, 8)
	for _, l := range rep.Loads {
		assert.Equal(t, "OK", l.Status(), l.Table)
		assert.EqualValues(t, 25, l.RowsLoaded)
	}
	require.Len(t, rep.Queries, 3)
	for _, q := range rep.Queries {
		assert.NoError(t, q.Err)
	}

	assert.Equal(t, tpch.StrategyCopy, rep.Strategy)
	assert.Contains(t, rep.Target, "awsuser@example.redshift.amazonaws.com:5439/dev")
	assert.Equal(t, 1, provider.releases)
}

func TestRun_MissingDependencyData(t *testing.T) {
	w := stockedWarehouse(25)
	delete(w.CopyRows, "supplier.tbl")
	w.CopyRows["partsupp.tbl"] = 0
	provider := &stubProvider{session: w}

	rep := New(provider, logging.NewNullLogger()).Run(context.Background(), copyConfig())

	assert.Nil(t, rep.Fatal)
	assert.Equal(t, "PARTIAL", rep.Status())
	assert.ErrorIs(t, rep.Err(), tpch.ErrIncomplete)
	assert.Equal(t, tpch.ExitIncomplete, tpch.ExitCodeForError(rep.Err()))

	status := map[string]string{}
	for _, l := range rep.Loads {
		status[l.Table] = l.Status()
	}
	assert.Equal(t, "FAILED", status["SUPPLIER"])
	assert.Equal(t, "MISMATCH", status["PARTSUPP"])
	assert.Equal(t, "OK", status["LINEITEM"])
	assert.Len(t, rep.Queries, 3)
	assert.Equal(t, 1, provider.releases)
}

func TestRun_MalformedDDLAbortsBeforeLoading(t *testing.T) {
	w := stockedWarehouse(25)
	provider := &stubProvider{session: w}
	cfg := copyConfig()
	cfg.DDL = "CREATE TABLE REGION (R_REGIONKEY INTEGER);\nCREATE TABEL NATION (N_NATIONKEY INTEGER);\nCREATE TABLE PART (P_PARTKEY INTEGER);"

	rep := New(provider, logging.NewNullLogger()).Run(context.Background(), cfg)

	require.Error(t, rep.Fatal)
	assert.ErrorIs(t, rep.Fatal, tpch.ErrSchema)
	assert.Equal(t, tpch.ExitSchemaError, tpch.ExitCodeForError(rep.Err()))
	assert.Equal(t, "FAILED", rep.Status())
	assert.Nil(t, rep.Loads)
	assert.Nil(t, rep.Queries)
	assert.Empty(t, w.StatementsWithPrefix("COPY"))
	assert.False(t, w.HasTable("PART"))
	assert.Equal(t, 1, provider.releases)
}

func TestRun_RetriesTransientConnectionFailures(t *testing.T) {
	w := stockedWarehouse(1)
	transient := fmt.Errorf("%w: %w", tpch.ErrConnectionFailed, &pgconn.PgError{Code: "08006", Message: "connection failure"})
	provider := &stubProvider{session: w, failures: []error{transient, transient}}
	logger := logging.NewRecordingLogger()

	rep := New(provider, logger, WithBackoff(fastBackoff())).Run(context.Background(), copyConfig())

	require.NoError(t, rep.Err())
	assert.Equal(t, 3, provider.acquires)
	assert.True(t, logger.Contains("warn", "Connection attempt 1 failed"))
}

func TestRun_AuthFailureIsNotRetried(t *testing.T) {
	authErr := fmt.Errorf("%w: %w", tpch.ErrConnectionFailed, &pgconn.PgError{Code: "28P01", Message: "password authentication failed"})
	provider := &stubProvider{failures: []error{authErr, authErr, authErr, authErr}}

	rep := New(provider, logging.NewNullLogger(), WithBackoff(fastBackoff())).Run(context.Background(), copyConfig())

	assert.ErrorIs(t, rep.Fatal, tpch.ErrConnectionFailed)
	assert.Equal(t, tpch.ExitConnectionError, tpch.ExitCodeForError(rep.Err()))
	assert.Equal(t, 1, provider.acquires)
	assert.Zero(t, provider.releases)
}

func TestRun_InvalidConfigNeverConnects(t *testing.T) {
	provider := &stubProvider{session: stockedWarehouse(1)}
	cfg := copyConfig()
	cfg.Copy.Bucket = ""

	rep := New(provider, logging.NewNullLogger()).Run(context.Background(), cfg)

	assert.ErrorIs(t, rep.Fatal, tpch.ErrInvalidConfig)
	assert.Equal(t, tpch.ExitConfigError, tpch.ExitCodeForError(rep.Err()))
	assert.Zero(t, provider.acquires)
}

func TestRun_MissingDataDirectory(t *testing.T) {
	provider := &stubProvider{session: stockedWarehouse(1)}
	cfg := copyConfig()
	cfg.Strategy = tpch.StrategyBatch
	cfg.DataDir = t.TempDir() + "/missing"

	rep := New(provider, logging.NewNullLogger()).Run(context.Background(), cfg)

	assert.ErrorIs(t, rep.Fatal, tpch.ErrInvalidConfig)
	assert.Zero(t, provider.acquires)
}

func TestRun_BatchStrategyRoundTrip(t *testing.T) {
	w := stockedWarehouse(0)
	provider := &stubProvider{session: w}
	cfg := copyConfig()
	cfg.Strategy = tpch.StrategyBatch
	cfg.DataDir = "sample"
	cfg.Copy = tpch.CopySource{}
	cfg.BatchSize = 7

	rep := New(provider, logging.NewNullLogger(), WithDataFS(fixtures.SampleDataset(fixtures.SmallScale))).
		Run(context.Background(), cfg)

	require.NoError(t, rep.Err())
	for _, l := range rep.Loads {
		assert.Equal(t, tpch.StrategyBatch, l.Strategy)
		assert.Equal(t, fixtures.SmallScale.Rows(l.Table), l.RowsLoaded, l.Table)
	}
	for _, size := range w.Batches {
		assert.LessOrEqual(t, size, 7)
	}
	assert.Empty(t, w.StatementsWithPrefix("COPY"))
}

func TestRun_BackslashEscapesReachBatchFiles(t *testing.T) {
	data := fixtures.NewDataDirBuilder().
		AddFile("region.sql", "INSERT INTO REGION VALUES (0, 'AFRICA', 'it\\'s; fine');\nINSERT INTO REGION VALUES (1, 'AMERICA', 'x');\n").
		Build()

	run := func(escapes bool) *tpch.RunReport {
		w := testhelpers.NewFakeWarehouse()
		w.CreateTable("REGION", 0)
		cfg := copyConfig()
		cfg.Stages = tpch.Stages{Load: true}
		cfg.Tables = tpch.DefaultTables()[:1]
		cfg.Strategy = tpch.StrategyBatch
		cfg.DataDir = "data"
		cfg.Copy = tpch.CopySource{}
		cfg.BackslashEscapes = escapes
		return New(&stubProvider{session: w}, logging.NewNullLogger(), WithDataFS(data)).Run(context.Background(), cfg)
	}

	rep := run(false)
	require.Len(t, rep.Loads, 1)
	assert.Error(t, rep.Loads[0].Err, "standard strings end at the backslash-quote")

	rep = run(true)
	require.NoError(t, rep.Err())
	require.Len(t, rep.Loads, 1)
	assert.Equal(t, int64(2), rep.Loads[0].RowsLoaded)
}

func TestRun_StageSelection(t *testing.T) {
	w := stockedWarehouse(1)
	provider := &stubProvider{session: w}
	cfg := copyConfig()
	cfg.Stages = tpch.Stages{Query: true}

	rep := New(provider, logging.NewNullLogger()).Run(context.Background(), cfg)

	require.NoError(t, rep.Err())
	assert.Nil(t, rep.Reset)
	assert.Nil(t, rep.Schema)
	assert.Nil(t, rep.Loads)
	assert.Empty(t, rep.Strategy)
	assert.Len(t, rep.Queries, 3)
	assert.Empty(t, w.StatementsWithPrefix("DROP"))
	assert.Empty(t, w.StatementsWithPrefix("CREATE"))
}

func TestRun_WithQueriesOverridesFixedSet(t *testing.T) {
	provider := &stubProvider{session: stockedWarehouse(1)}
	cfg := copyConfig()
	cfg.Stages = tpch.Stages{Query: true}
	only := []tpch.QuerySpec{{ID: "one", SQL: "SELECT 1", RowCap: 5}}

	rep := New(provider, logging.NewNullLogger(), WithQueries(only)).Run(context.Background(), cfg)

	require.Len(t, rep.Queries, 1)
	assert.Equal(t, "one", rep.Queries[0].Spec.ID)
}

func TestRun_CancelledRunIsFatal(t *testing.T) {
	w := stockedWarehouse(1)
	provider := &stubProvider{session: w}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := copyConfig()
	cfg.Stages = tpch.Stages{Load: true}

	rep := New(provider, logging.NewNullLogger()).Run(ctx, cfg)

	assert.ErrorIs(t, rep.Fatal, context.Canceled)
	assert.Empty(t, w.StatementsWithPrefix("COPY"))
	for _, l := range rep.Loads {
		assert.ErrorIs(t, l.Err, tpch.ErrLoad)
	}
	assert.Equal(t, tpch.ExitGeneralError, tpch.ExitCodeForError(rep.Err()))
	assert.Equal(t, 1, provider.releases)
}

func TestNew_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { New(nil, logging.NewNullLogger()) })
	assert.Panics(t, func() { New(&stubProvider{}, nil) })
}
