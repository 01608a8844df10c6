package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tpchload/internal/query"
	"github.com/vvka-141/tpchload/internal/schema"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

// newFlagCommand returns a command with fresh run flags parsed from args.
func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	runFlags = runFlagValues{}
	t.Cleanup(func() { runFlags = runFlagValues{} })

	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().Bool("help", false, "")
	registerRunFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func clearConnectionEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
		"TPCH_CONNECTION_STRING", "DATABASE_URL", "AWS_REGION",
		"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestBuildPipelineConfig_Defaults(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()
	cmd := newFlagCommand(t, "--config-dir", dir)

	cfg, err := buildPipelineConfig(cmd, tpch.AllStages(), envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Connection.Host)
	assert.Equal(t, tpch.DefaultPort, cfg.Connection.Port)
	assert.Equal(t, tpch.DefaultDatabase, cfg.Connection.Database)
	assert.Equal(t, "require", cfg.Connection.SSLMode)
	assert.Equal(t, tpch.StrategyCopy, cfg.Strategy)
	assert.Equal(t, tpch.DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, tpch.DefaultRunTimeout, cfg.Timeout)
	assert.Equal(t, tpch.DefaultRetryMaxAttempts, cfg.ConnectRetries)
	assert.Equal(t, tpch.DefaultFieldDelimiter, cfg.Copy.FieldDelimiter)
	assert.Equal(t, tpch.DefaultDateFormat, cfg.Copy.DateFormat)
	assert.Equal(t, schema.DefaultDDL, cfg.DDL)
	assert.Len(t, cfg.Tables, 8)
	assert.NotEqual(t, uuid.Nil, cfg.RunID)
}

func TestBuildPipelineConfig_Precedence(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "tpchload.yaml", `connection:
  host: yaml-host.example.com
  username: loader
load:
  strategy: batch
  bucket: yaml-bucket
  data_dir: ./data
  batch_size: 200
  delimiter: ","
timeout: 30m
`)
	writeFile(t, dir, "config.properties", `HOST=props-host.example.com
PORT=5440
PASSWORD=s3cret
S3_BUCKET=props-bucket
S3_PREFIX=props/prefix
IAM_ROLE_ARN=arn:aws:iam::123456789012:role/props
`)
	cmd := newFlagCommand(t, "--config-dir", dir, "--bucket", "flag-bucket")

	cfg, err := buildPipelineConfig(cmd, tpch.AllStages(), envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "yaml-host.example.com", cfg.Connection.Host, "yaml beats properties")
	assert.Equal(t, 5440, cfg.Connection.Port, "properties fill what yaml leaves empty")
	assert.Equal(t, "loader", cfg.Connection.Username)
	assert.Equal(t, "s3cret", cfg.Connection.Password)
	assert.Equal(t, tpch.StrategyBatch, cfg.Strategy)
	assert.Equal(t, "flag-bucket", cfg.Copy.Bucket, "flag beats yaml")
	assert.Equal(t, "props/prefix", cfg.Copy.Prefix)
	assert.Equal(t, "arn:aws:iam::123456789012:role/props", cfg.Copy.IAMRoleARN)
	assert.Equal(t, ",", cfg.Copy.FieldDelimiter)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 200, cfg.BatchSize)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
}

func TestBuildPipelineConfig_FlagsOverrideFile(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "tpchload.yaml", `connection:
  host: yaml-host
load:
  batch_size: 200
timeout: 30m
`)
	cmd := newFlagCommand(t, "--config-dir", dir,
		"--host", "flag-host", "--batch-size", "50", "--timeout", "5m", "--strategy", "batch")

	cfg, err := buildPipelineConfig(cmd, tpch.AllStages(), envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "flag-host", cfg.Connection.Host)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Equal(t, tpch.StrategyBatch, cfg.Strategy)
}

func TestBuildPipelineConfig_EnvironmentBeatsFiles(t *testing.T) {
	clearConnectionEnv(t)
	t.Setenv("PGHOST", "env-host")
	dir := t.TempDir()
	writeFile(t, dir, "tpchload.yaml", "connection:\n  host: yaml-host\n")
	writeFile(t, dir, "config.properties", "IAM_ROLE_ARN=arn:aws:iam::111111111111:role/props\n")
	cmd := newFlagCommand(t, "--config-dir", dir)

	cfg, err := buildPipelineConfig(cmd, tpch.AllStages(), envMap(map[string]string{
		envIAMRoleARN: "arn:aws:iam::222222222222:role/env",
	}))
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Connection.Host)
	assert.Equal(t, "arn:aws:iam::222222222222:role/env", cfg.Copy.IAMRoleARN)
}

func TestBuildPipelineConfig_AccessKeysFromEnvironment(t *testing.T) {
	clearConnectionEnv(t)
	cmd := newFlagCommand(t, "--config-dir", t.TempDir())

	cfg, err := buildPipelineConfig(cmd, tpch.AllStages(), envMap(map[string]string{
		envAccessKeyID:     "AKIAEXAMPLE",
		envSecretAccessKey: "secret",
		envSessionToken:    "token",
	}))
	require.NoError(t, err)

	assert.Empty(t, cfg.Copy.IAMRoleARN)
	assert.Equal(t, "AKIAEXAMPLE", cfg.Copy.AccessKeyID)
	assert.Equal(t, "secret", cfg.Copy.SecretAccessKey)
	assert.Equal(t, "token", cfg.Copy.SessionToken)
	assert.True(t, cfg.Copy.HasCredential())
}

func TestBuildPipelineConfig_CustomDDL(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "custom.sql", "CREATE TABLE region (r_regionkey INTEGER);")
	cmd := newFlagCommand(t, "--config-dir", dir, "--ddl", filepath.Join(dir, "custom.sql"))

	cfg, err := buildPipelineConfig(cmd, tpch.Stages{Reset: true, Schema: true}, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE region (r_regionkey INTEGER);", cfg.DDL)
}

func TestBuildPipelineConfig_DDLSkippedWithoutSchemaStage(t *testing.T) {
	clearConnectionEnv(t)
	cmd := newFlagCommand(t, "--config-dir", t.TempDir(), "--ddl", "/does/not/exist.sql")

	cfg, err := buildPipelineConfig(cmd, tpch.Stages{Load: true}, envMap(nil))
	require.NoError(t, err)
	assert.Empty(t, cfg.DDL)
}

func TestBuildPipelineConfig_InvalidInputs(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		props string
		args  []string
	}{
		{name: "unknown strategy", args: []string{"--strategy", "stream"}},
		{name: "unknown auth method", args: []string{"--auth-method", "kerberos"}},
		{name: "connection with host", args: []string{"--connection", "postgresql://u@h/db", "--host", "other"}},
		{name: "bad timeout in yaml", yaml: "timeout: soon\n"},
		{name: "malformed yaml", yaml: "connection: [unclosed\n"},
		{name: "bad port in properties", props: "PORT=abc\n"},
		{name: "missing ddl file", args: []string{"--ddl", "/does/not/exist.sql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConnectionEnv(t)
			dir := t.TempDir()
			if tt.yaml != "" {
				writeFile(t, dir, "tpchload.yaml", tt.yaml)
			}
			if tt.props != "" {
				writeFile(t, dir, "config.properties", tt.props)
			}
			cmd := newFlagCommand(t, append([]string{"--config-dir", dir}, tt.args...)...)

			_, err := buildPipelineConfig(cmd, tpch.AllStages(), envMap(nil))
			require.Error(t, err)
			assert.ErrorIs(t, err, tpch.ErrInvalidConfig)
			assert.Equal(t, tpch.ExitConfigError, tpch.ExitCodeForError(err))
		})
	}
}

func TestSelectQueries(t *testing.T) {
	all, err := selectQueries(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	picked, err := selectQueries([]string{query.PriorityDistributionID, query.RecentOrdersID})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, query.PriorityDistributionID, picked[0].ID)
	assert.Equal(t, query.RecentOrdersID, picked[1].ID)

	_, err = selectQueries([]string{"q99"})
	require.Error(t, err)
	assert.ErrorIs(t, err, tpch.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "recent-orders")
}

func TestRunContext(t *testing.T) {
	ctx, cancel := runContext(0)
	defer cancel()
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline, "zero timeout means no limit")
	assert.NoError(t, ctx.Err())

	bounded, cancelBounded := runContext(time.Minute)
	defer cancelBounded()
	deadline, hasDeadline := bounded.Deadline()
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestBuildPipelineConfig_ZeroTimeoutIsValid(t *testing.T) {
	clearConnectionEnv(t)
	cmd := newFlagCommand(t, "--config-dir", t.TempDir(), "--timeout", "0")

	cfg, err := buildPipelineConfig(cmd, tpch.Stages{Reset: true}, envMap(nil))
	require.NoError(t, err)
	assert.Zero(t, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestBuildPipelineConfig_BackslashEscapes(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "tpchload.yaml", "load:\n  backslash_escapes: true\n")

	cfg, err := buildPipelineConfig(newFlagCommand(t, "--config-dir", dir), tpch.AllStages(), envMap(nil))
	require.NoError(t, err)
	assert.True(t, cfg.BackslashEscapes)

	cfg, err = buildPipelineConfig(newFlagCommand(t, "--config-dir", t.TempDir(), "--backslash-escapes"), tpch.AllStages(), envMap(nil))
	require.NoError(t, err)
	assert.True(t, cfg.BackslashEscapes)
}

func TestFirstSet(t *testing.T) {
	assert.Equal(t, "b", firstSet("", "b", "c"))
	assert.Equal(t, "", firstSet("", ""))
	assert.Equal(t, "", firstSet())
}
