package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// TokenBasedConnector authenticates with a short-lived token (AWS IAM,
// Azure Entra ID) passed as the password.
type TokenBasedConnector struct {
	config        *tpch.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        tpch.Logger
}

// NewTokenBasedConnector creates a connector that fetches a token per Connect.
func NewTokenBasedConnector(config *tpch.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger tpch.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
	}
	c.logger.Verbose("acquired %s token from %s", c.providerName, c.tokenProvider)
	if remaining := time.Until(expiresOn); remaining < 5*time.Minute {
		c.logger.Warn("%s token expires in %v", c.providerName, remaining.Round(time.Second))
	}

	withToken := *c.config
	withToken.Password = token
	if withToken.SSLMode == "" {
		withToken.SSLMode = "require"
	}

	return openPool(ctx, BuildConnectionString(&withToken), c.config, c.logger, nil)
}
