package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

type runFlagValues struct {
	connection, host, username, database, sslMode string
	port                                          int
	authMethod, awsRegion, googleInstance         string

	configDir, ddlPath string

	strategy, bucket, prefix, s3Region, dataDir string
	batchSize                                   int
	failFast, backslashEscapes                  bool

	retries int
	timeout time.Duration
}

var runFlags runFlagValues

// registerRunFlags adds the connection and load flags shared by every stage
// command. There is no password or credential flag.
func registerRunFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()

	f.StringVar(&runFlags.connection, "connection", "",
		"Warehouse connection string (URI, jdbc:redshift:// or ADO.NET format).\n"+
			"Mutually exclusive with --host, --port, --username and --sslmode.\n"+
			"Alternative: $TPCH_CONNECTION_STRING or $DATABASE_URL")
	f.StringVarP(&runFlags.host, "host", "h", "",
		"Warehouse host\n"+
			"Precedence: --host > $PGHOST > tpchload.yaml > config.properties > localhost")
	f.IntVarP(&runFlags.port, "port", "p", 0,
		"Warehouse port\n"+
			"Precedence: --port > $PGPORT > tpchload.yaml > config.properties > 5439")
	f.StringVarP(&runFlags.username, "username", "U", "", "Database user (default: $PGUSER)")
	f.StringVarP(&runFlags.database, "database", "d", "", "Database name (default: $PGDATABASE or dev)")
	f.StringVar(&runFlags.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full (default: require, or $PGSSLMODE)")
	f.StringVar(&runFlags.authMethod, "auth-method", "",
		"Authentication: standard|aws|azure|google (default: standard)")
	f.StringVar(&runFlags.awsRegion, "aws-region", "", "AWS region for IAM database authentication (default: $AWS_REGION)")
	f.StringVar(&runFlags.googleInstance, "google-instance", "", "Cloud SQL instance connection name (project:region:instance)")

	f.StringVar(&runFlags.configDir, "config-dir", ".",
		"Directory holding tpchload.yaml and config.properties")
	f.StringVar(&runFlags.ddlPath, "ddl", "", "DDL script replacing the built-in TPC-H schema")

	f.StringVar(&runFlags.strategy, "strategy", "",
		"Load strategy: copy (COPY from S3) or batch (local INSERT files) (default: copy)")
	f.StringVar(&runFlags.bucket, "bucket", "", "S3 bucket holding the dbgen .tbl files")
	f.StringVar(&runFlags.prefix, "prefix", "", "Key prefix of the .tbl files inside the bucket")
	f.StringVar(&runFlags.s3Region, "s3-region", "", "Bucket region when it differs from the cluster's")
	f.StringVar(&runFlags.dataDir, "data-dir", "", "Directory of <table>.sql insert files for the batch strategy")
	f.IntVar(&runFlags.batchSize, "batch-size", tpch.DefaultBatchSize, "Statements per round-trip for the batch strategy")
	f.BoolVar(&runFlags.failFast, "fail-fast", false, "Stop loading after the first failed table")
	f.BoolVar(&runFlags.backslashEscapes, "backslash-escapes", false,
		"Treat backslash as an escape inside quoted strings of the DDL and insert files (Redshift syntax)")

	f.IntVar(&runFlags.retries, "retries", tpch.DefaultRetryMaxAttempts, "Retries for transient connection failures")
	f.DurationVar(&runFlags.timeout, "timeout", tpch.DefaultRunTimeout,
		"Catastrophic failure protection timeout for the whole run; 0 disables it\n"+
			"Examples: 30m, 2h")
}
