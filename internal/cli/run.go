package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/tpchload/internal/config"
	"github.com/vvka-141/tpchload/internal/db"
	"github.com/vvka-141/tpchload/internal/db/manager"
	"github.com/vvka-141/tpchload/internal/logging"
	"github.com/vvka-141/tpchload/internal/pipeline"
	"github.com/vvka-141/tpchload/internal/report"
	"github.com/vvka-141/tpchload/internal/schema"
	"github.com/vvka-141/tpchload/internal/tui"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

// Environment variables holding the COPY credential reference.
const (
	envIAMRoleARN      = "TPCH_IAM_ROLE_ARN"
	envAccessKeyID     = "AWS_ACCESS_KEY_ID"
	envSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	envSessionToken    = "AWS_SESSION_TOKEN"
)

// runStages resolves the run configuration and executes the selected stages.
func runStages(cmd *cobra.Command, stages tpch.Stages, opts ...pipeline.Option) error {
	// Load .env if present; real environment variables take precedence
	_ = godotenv.Load()

	verbose := getVerboseFlag(cmd)
	cfg, err := buildPipelineConfig(cmd, stages, os.Getenv)
	if err != nil {
		return err
	}
	cfg.Verbose = verbose

	logger := logging.NewConsoleLogger(verbose).WithRunID(cfg.RunID.String()[:8])
	logger.Verbose("Target: %s", cfg.Connection)

	connector, err := db.NewConnector(cfg.Connection, logger)
	if err != nil {
		return err
	}
	mgr := manager.New(connector, logger)

	ctx, cancel := runContext(cfg.Timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	rep := pipeline.New(mgr, logger, opts...).Run(ctx, cfg)
	report.NewRenderer(cmd.OutOrStdout(), tui.IsStyled(os.Stdout)).Render(rep)
	return rep.Err()
}

// runContext bounds the run by timeout. A zero timeout means no limit.
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// buildPipelineConfig merges flags, the environment, tpchload.yaml and
// config.properties into one PipelineConfig. getenv supplies the secrets that
// are never accepted as flags.
func buildPipelineConfig(cmd *cobra.Command, stages tpch.Stages, getenv func(string) string) (tpch.PipelineConfig, error) {
	project, err := config.Load(runFlags.configDir)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return tpch.PipelineConfig{}, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, tpch.ErrInvalidConfig, err)
		}
		project = &config.ProjectConfig{}
	}
	props, err := config.LoadProperties(runFlags.configDir)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return tpch.PipelineConfig{}, fmt.Errorf("%w: %w", tpch.ErrInvalidConfig, err)
		}
		props = &config.Properties{}
	}

	conn, err := db.ResolveConnectionParams(
		runFlags.connection,
		&db.GranularConnFlags{
			Host:           runFlags.host,
			Port:           runFlags.port,
			Username:       runFlags.username,
			Database:       runFlags.database,
			SSLMode:        runFlags.sslMode,
			AuthMethod:     runFlags.authMethod,
			AWSRegion:      runFlags.awsRegion,
			GoogleInstance: runFlags.googleInstance,
		},
		db.LoadFromEnvironment(),
		project,
		props,
	)
	if err != nil {
		return tpch.PipelineConfig{}, err
	}

	strategy, err := tpch.ParseStrategy(firstSet(runFlags.strategy, project.Load.Strategy))
	if err != nil {
		return tpch.PipelineConfig{}, err
	}

	timeout, err := resolveTimeout(cmd, project.Timeout)
	if err != nil {
		return tpch.PipelineConfig{}, err
	}

	cfg := tpch.PipelineConfig{
		RunID:      uuid.New(),
		Connection: conn,
		Stages:     stages,
		Tables:     tpch.DefaultTables(),
		Strategy:   strategy,
		Copy: tpch.CopySource{
			Bucket:          firstSet(runFlags.bucket, project.Load.Bucket, props.Bucket),
			Prefix:          firstSet(runFlags.prefix, project.Load.Prefix, props.Prefix),
			IAMRoleARN:      firstSet(getenv(envIAMRoleARN), props.IAMRoleARN),
			AccessKeyID:     getenv(envAccessKeyID),
			SecretAccessKey: getenv(envSecretAccessKey),
			SessionToken:    getenv(envSessionToken),
			Region:          firstSet(runFlags.s3Region, project.Load.Region),
			FieldDelimiter:  firstSet(project.Load.Delimiter, tpch.DefaultFieldDelimiter),
			DateFormat:      firstSet(project.Load.DateFormat, tpch.DefaultDateFormat),
		},
		DataDir:          firstSet(runFlags.dataDir, project.Load.DataDir),
		BatchSize:        runFlags.batchSize,
		FailFast:         runFlags.failFast || project.Load.FailFast,
		BackslashEscapes: runFlags.backslashEscapes || project.Load.BackslashEscapes,
		ConnectRetries:   runFlags.retries,
		Timeout:          timeout,
	}
	if !cmd.Flags().Changed("batch-size") && project.Load.BatchSize > 0 {
		cfg.BatchSize = project.Load.BatchSize
	}

	if stages.Schema {
		cfg.DDL, err = schema.LoadDDL(firstSet(runFlags.ddlPath, project.DDL))
		if err != nil {
			return tpch.PipelineConfig{}, fmt.Errorf("%w: %w", tpch.ErrInvalidConfig, err)
		}
	}

	return cfg, nil
}

// resolveTimeout applies --timeout when given, then the yaml timeout, then
// the default.
func resolveTimeout(cmd *cobra.Command, fromFile string) (time.Duration, error) {
	if cmd.Flags().Changed("timeout") || fromFile == "" {
		return runFlags.timeout, nil
	}
	d, err := time.ParseDuration(fromFile)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q in %s: %w", fromFile, config.ConfigFileName, tpch.ErrInvalidConfig)
	}
	return d, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
