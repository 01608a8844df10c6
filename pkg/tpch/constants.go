package tpch

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Every stage completed and every table and query succeeded
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to the warehouse
	ExitSchemaError     = 12 // DDL could not be applied
	ExitIncomplete      = 13 // Run finished but some tables or queries failed
)

const (
	// DefaultBatchSize is the number of insert statements sent per round-trip
	// by the batched-insert strategy.
	DefaultBatchSize = 500

	// DefaultPort is the Amazon Redshift listener port.
	DefaultPort = 5439

	// DefaultDatabase is the database created with every Redshift cluster.
	DefaultDatabase = "dev"

	// DefaultFieldDelimiter separates fields in dbgen .tbl files.
	DefaultFieldDelimiter = "|"

	// DefaultDateFormat is the COPY DATEFORMAT for dbgen output.
	DefaultDateFormat = "YYYY-MM-DD"

	// DefaultConnectTimeout bounds establishing the warehouse session.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultRunTimeout is the catastrophic-failure guard for a whole run.
	// Loading LINEITEM at scale factor 100 takes well over an hour on small clusters.
	DefaultRunTimeout = 2 * time.Hour

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 500 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of connect retries.
	DefaultRetryMaxAttempts = 3

	// MaxErrorPreviewLength is the maximum number of characters of a failing
	// statement quoted in error messages.
	MaxErrorPreviewLength = 200

	// AppName is reported to the server as application_name.
	AppName = "tpchload"
)
