package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tpchload/internal/logging"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

type stubTokenProvider struct {
	token     string
	expiresOn time.Time
	err       error
}

func (s *stubTokenProvider) GetToken(context.Context) (string, time.Time, error) {
	return s.token, s.expiresOn, s.err
}

func (s *stubTokenProvider) String() string { return "stub" }

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name         string
		errMsg       string
		wantContains string
	}{
		{"connection refused", "dial tcp 10.0.0.5:5439: connection refused", "connection refused to cluster:5439"},
		{"no such host", "dial tcp: lookup cluster: no such host", `cannot resolve host "cluster"`},
		{"password", `FATAL: password authentication failed for user "awsuser"`, `password authentication failed for database "dev"`},
		{"missing database", `database "dev" does not exist`, `database "dev" does not exist`},
		{"timeout", "dial tcp 10.0.0.5:5439: i/o timeout", "allow inbound traffic on port 5439"},
		{"ssl", "server refused TLS connection", "SSL/TLS connection error"},
		{"too many connections", "sorry, too many connections", "connection limit"},
		{"other", "something odd", "failed to connect to database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := errors.New(tt.errMsg)
			err := wrapConnectionError(orig, "cluster", 5439, "dev")
			assert.Contains(t, err.Error(), tt.wantContains)
			assert.ErrorIs(t, err, orig)
		})
	}
}

func TestNewConnector_SelectsByAuthMethod(t *testing.T) {
	logger := logging.NewNullLogger()

	c, err := NewConnector(&tpch.ConnectionConfig{Host: "h", Port: 5439}, logger)
	require.NoError(t, err)
	assert.IsType(t, &StandardConnector{}, c)

	c, err = NewConnector(&tpch.ConnectionConfig{Host: "h", Port: 5432, Username: "iam_user", AWSRegion: "us-east-1", AuthMethod: tpch.AuthMethodAWSIAM}, logger)
	require.NoError(t, err)
	assert.IsType(t, &TokenBasedConnector{}, c)

	c, err = NewConnector(&tpch.ConnectionConfig{Username: "sa@project.iam", GoogleInstance: "p:r:i", AuthMethod: tpch.AuthMethodGoogleIAM}, logger)
	require.NoError(t, err)
	assert.IsType(t, &GoogleCloudSQLConnector{}, c)
}

func TestNewConnector_InvalidConfigs(t *testing.T) {
	logger := logging.NewNullLogger()
	tests := []struct {
		name string
		cfg  *tpch.ConnectionConfig
	}{
		{"nil config", nil},
		{"aws without region", &tpch.ConnectionConfig{Host: "h", Port: 5432, Username: "u", AuthMethod: tpch.AuthMethodAWSIAM}},
		{"google without instance", &tpch.ConnectionConfig{Username: "u", AuthMethod: tpch.AuthMethodGoogleIAM}},
		{"google without user", &tpch.ConnectionConfig{GoogleInstance: "p:r:i", AuthMethod: tpch.AuthMethodGoogleIAM}},
		{"unknown method", &tpch.ConnectionConfig{AuthMethod: tpch.AuthMethod(42)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnector(tt.cfg, logger)
			assert.ErrorIs(t, err, tpch.ErrInvalidConfig)
		})
	}
}

func TestTokenBasedConnector_TokenFailure(t *testing.T) {
	boom := errors.New("no credentials")
	c := NewTokenBasedConnector(&tpch.ConnectionConfig{Host: "h", Port: 5432}, &stubTokenProvider{err: boom}, "AWS IAM", logging.NewNullLogger())

	_, err := c.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to acquire AWS IAM token")
}

func TestStandardConnector_UnreachableHostTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}
	cfg := &tpch.ConnectionConfig{
		Host: "192.0.2.1", Port: 5439, Database: "dev", Username: "u", SSLMode: "disable",
		ConnectTimeout: time.Second,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewStandardConnector(cfg, logging.NewNullLogger()).Connect(ctx)
	require.Error(t, err)
}

func TestNewAWSIAMTokenProvider_Validation(t *testing.T) {
	_, err := NewAWSIAMTokenProvider("", "us-east-1", "u")
	assert.Error(t, err)
	_, err = NewAWSIAMTokenProvider("h:5432", "", "u")
	assert.Error(t, err)
	_, err = NewAWSIAMTokenProvider("h:5432", "us-east-1", "")
	assert.Error(t, err)

	p, err := NewAWSIAMTokenProvider("h:5432", "us-east-1", "u")
	require.NoError(t, err)
	assert.Equal(t, "AWSIAM(endpoint=h:5432, region=us-east-1, user=u)", p.String())
}

func TestNewAzureServicePrincipalProvider_RequiresAllParams(t *testing.T) {
	_, err := NewAzureServicePrincipalProvider("tenant", "client", "")
	assert.Error(t, err)

	p, err := NewAzureServicePrincipalProvider("tenant", "client", "secret")
	require.NoError(t, err)
	assert.NotContains(t, p.String(), "secret")
}
