package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// GoogleCloudSQLConnector connects to Cloud SQL for PostgreSQL with IAM
// database authentication through the Cloud SQL dialer.
//
// Close must be called after the pool is closed to release the dialer.
type GoogleCloudSQLConnector struct {
	config *tpch.ConnectionConfig
	logger tpch.Logger
	dialer *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector creates a connector for config.GoogleInstance.
func NewGoogleCloudSQLConnector(config *tpch.ConnectionConfig, logger tpch.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{config: config, logger: logger}
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}

	// The dialer provides TLS, so the driver itself must not negotiate SSL.
	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", c.config.GoogleInstance, c.config.Username, c.config.Database)
	instance := c.config.GoogleInstance

	pool, err := openPool(ctx, dsn, c.config, c.logger, func(pc *pgxpool.Config) {
		pc.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, instance)
		}
	})
	if err != nil {
		dialer.Close()
		return nil, err
	}

	c.dialer = dialer
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}
