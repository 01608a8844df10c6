package tpch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is required for AWS IAM authentication.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string

	// Azure Entra ID credentials. If all three are set, Service Principal
	// authentication is used; otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// String describes the connection target without secrets.
func (c *ConnectionConfig) String() string {
	return fmt.Sprintf("%s@%s:%d/%s (%s)", c.Username, c.Host, c.Port, c.Database, c.AuthMethod)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM database authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ParseAuthMethod maps a config or flag value to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam", "aws_iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "google_iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra-id", "azure_entra_id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("unknown auth method %q: %w", s, ErrInvalidConfig)
	}
}

// Strategy selects how table data is ingested. It is chosen once per run;
// strategies are never mixed within a run.
type Strategy string

const (
	// StrategyCopy ingests delimited files from object storage with one COPY per table.
	StrategyCopy Strategy = "copy"

	// StrategyBatch executes local insert-statement files in fixed-size batches.
	StrategyBatch Strategy = "batch"
)

// ParseStrategy maps a config or flag value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyCopy:
		return StrategyCopy, nil
	case StrategyBatch:
		return StrategyBatch, nil
	default:
		return "", fmt.Errorf("unknown load strategy %q (want copy or batch): %w", s, ErrInvalidConfig)
	}
}

// CopySource locates the object-store files read by the copy strategy.
type CopySource struct {
	Bucket string
	Prefix string

	// Exactly one credential reference is used: IAMRoleARN when set,
	// otherwise the access key pair.
	IAMRoleARN      string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	Region         string // optional REGION clause for cross-region buckets
	FieldDelimiter string
	DateFormat     string
}

// URI returns the object URI for a table's source file.
func (s CopySource) URI(file string) string {
	prefix := strings.Trim(s.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return "s3://" + s.Bucket + "/" + prefix + file
}

// HasCredential reports whether a credential reference is configured.
func (s CopySource) HasCredential() bool {
	return s.IAMRoleARN != "" || (s.AccessKeyID != "" && s.SecretAccessKey != "")
}

// Stages selects which pipeline stages run.
type Stages struct {
	Reset  bool
	Schema bool
	Load   bool
	Query  bool
}

// AllStages runs reset, schema, load, and queries in order.
func AllStages() Stages {
	return Stages{Reset: true, Schema: true, Load: true, Query: true}
}

// PipelineConfig contains all parameters needed for one pipeline run.
type PipelineConfig struct {
	// RunID identifies the run in logs and the report.
	RunID uuid.UUID

	Connection *ConnectionConfig
	Stages     Stages
	Tables     []TableSpec

	// DDL is the schema script applied by the Schema stage.
	DDL string

	Strategy  Strategy
	Copy      CopySource
	DataDir   string // directory of <table>.sql files for the batch strategy
	BatchSize int

	// FailFast stops loading after the first failed table.
	FailFast bool

	// BackslashEscapes splits the DDL and insert files treating a backslash
	// in a single-quoted string as an escape, as Redshift parses them.
	BackslashEscapes bool

	// ConnectRetries is the number of retries for transient connection failures.
	ConnectRetries int

	// Timeout is the global timeout for the entire run. Zero means no limit.
	Timeout time.Duration

	Verbose bool
}

// Validate checks that the configuration is complete for the selected stages.
// It returns a multi-error if multiple validation failures occur.
func (c *PipelineConfig) Validate() error {
	var errs []error

	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("connection is required: %w", ErrInvalidConfig))
	} else if c.Connection.Host == "" {
		errs = append(errs, fmt.Errorf("host is required: %w", ErrInvalidConfig))
	}

	if len(c.Tables) == 0 {
		errs = append(errs, fmt.Errorf("at least one table is required: %w", ErrInvalidConfig))
	} else if err := ValidateTables(c.Tables); err != nil {
		errs = append(errs, err)
	}

	if c.Stages.Schema && strings.TrimSpace(c.DDL) == "" {
		errs = append(errs, fmt.Errorf("DDL script is empty: %w", ErrInvalidConfig))
	}

	if c.Stages.Load {
		switch c.Strategy {
		case StrategyCopy:
			if c.Copy.Bucket == "" {
				errs = append(errs, fmt.Errorf("copy strategy requires a bucket: %w", ErrInvalidConfig))
			}
			if !c.Copy.HasCredential() {
				errs = append(errs, fmt.Errorf("copy strategy requires an IAM role ARN or an access key pair: %w", ErrInvalidConfig))
			}
		case StrategyBatch:
			if c.DataDir == "" {
				errs = append(errs, fmt.Errorf("batch strategy requires a data directory: %w", ErrInvalidConfig))
			}
			if c.BatchSize <= 0 {
				errs = append(errs, fmt.Errorf("batch size must be positive, got %d: %w", c.BatchSize, ErrInvalidConfig))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown load strategy %q: %w", c.Strategy, ErrInvalidConfig))
		}
	}

	if c.ConnectRetries < 0 {
		errs = append(errs, fmt.Errorf("connect retries cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
