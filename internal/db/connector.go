package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// The pool exists only to own one connection for the whole run.
const (
	PoolMaxConns        = 1
	PoolMaxConnIdleTime = 2 * time.Hour
)

func configurePool(poolConfig *pgxpool.Config, config *tpch.ConnectionConfig, logger tpch.Logger) {
	poolConfig.MaxConns = PoolMaxConns
	poolConfig.MinConns = 0
	poolConfig.MaxConnIdleTime = PoolMaxConnIdleTime

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = tpch.DefaultConnectTimeout
	}
	poolConfig.ConnConfig.ConnectTimeout = timeout

	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = tpch.AppName
	}

	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("server %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

// openPool parses connStr, opens a one-connection pool and pings it.
func openPool(ctx context.Context, connStr string, config *tpch.ConnectionConfig, logger tpch.Logger, tweak func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	configurePool(poolConfig, config, logger)
	if tweak != nil {
		tweak(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	return pool, nil
}

// StandardConnector connects with a username and password.
//
// It makes a single attempt. Transient failures are retried by the caller,
// which owns the retry budget for the whole run.
type StandardConnector struct {
	config *tpch.ConnectionConfig
	logger tpch.Logger
}

// NewStandardConnector creates a new StandardConnector.
func NewStandardConnector(config *tpch.ConnectionConfig, logger tpch.Logger) *StandardConnector {
	return &StandardConnector{config: config, logger: logger}
}

// Connect opens the pool and verifies it with a ping.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return openPool(ctx, BuildConnectionString(c.config), c.config, c.logger, nil)
}

// NewConnector returns the Connector matching config.AuthMethod.
func NewConnector(config *tpch.ConnectionConfig, logger tpch.Logger) (tpch.Connector, error) {
	if config == nil {
		return nil, fmt.Errorf("connection config is required: %w", tpch.ErrInvalidConfig)
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	switch config.AuthMethod {
	case tpch.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case tpch.AuthMethodAWSIAM:
		provider, err := NewAWSIAMTokenProvider(fmt.Sprintf("%s:%d", config.Host, config.Port), config.AWSRegion, config.Username)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", tpch.ErrInvalidConfig, err)
		}
		return NewTokenBasedConnector(config, provider, "AWS IAM", logger), nil
	case tpch.AuthMethodAzureEntraID:
		provider, err := newAzureTokenProvider(config)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", tpch.ErrInvalidConfig, err)
		}
		return NewTokenBasedConnector(config, provider, "Azure", logger), nil
	case tpch.AuthMethodGoogleIAM:
		if config.GoogleInstance == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", tpch.ErrInvalidConfig)
		}
		if config.Username == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a username: %w", tpch.ErrInvalidConfig)
		}
		return NewGoogleCloudSQLConnector(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, tpch.ErrInvalidConfig)
	}
}

// wrapConnectionError rewrites raw pgx connection errors with guidance for
// Redshift and PostgreSQL endpoints.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - Cluster is paused, resizing or still starting
  - Wrong host or port (Redshift listens on 5439 by default)

Original error: %w`, addr, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Endpoint is misspelled (copy it from the cluster console)
  - Cluster was deleted or renamed

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or PASSWORD in config.properties)
  - Wrong username

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

Set the database with --database, PGDATABASE or DB_NAME in config.properties.

Original error: %w`, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Security group or firewall does not allow inbound traffic on port %d
  - Cluster is not publicly accessible from this network
  - Server is overloaded

Original error: %w`, addr, port, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is disable
  - Certificate verification failed (try --sslmode=require)

Original error: %w`, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to database "%s"

The cluster's connection limit is reached. Close idle sessions and retry.

Original error: %w`, database, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}
