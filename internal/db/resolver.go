package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/tpchload/internal/config"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

// DefaultSSLMode is used when no source sets sslmode.
const DefaultSSLMode = "require"

// GranularConnFlags holds connection flags. There is deliberately no password
// flag: passwords come from $PGPASSWORD, a connection string or config.properties.
type GranularConnFlags struct {
	Host           string
	Port           int
	Username       string
	Database       string
	SSLMode        string
	AuthMethod     string
	AWSRegion      string
	GoogleInstance string
}

// IsEmpty reports whether no server-identifying flag was given. Database is
// excluded because it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// EnvVars holds the environment variables consulted during resolution.
type EnvVars struct {
	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	TPCH_CONNECTION_STRING string
	DATABASE_URL           string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                 os.Getenv("PGHOST"),
		PGPORT:                 os.Getenv("PGPORT"),
		PGUSER:                 os.Getenv("PGUSER"),
		PGPASSWORD:             os.Getenv("PGPASSWORD"),
		PGDATABASE:             os.Getenv("PGDATABASE"),
		PGSSLMODE:              os.Getenv("PGSSLMODE"),
		TPCH_CONNECTION_STRING: os.Getenv("TPCH_CONNECTION_STRING"),
		DATABASE_URL:           os.Getenv("DATABASE_URL"),
		AWS_REGION:             os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:        os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:        os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:    os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnectionParams builds the ConnectionConfig for a run.
//
// A connection string (--connection, then $TPCH_CONNECTION_STRING, then
// $DATABASE_URL) is used as a whole. Otherwise each field resolves as
// flag > environment > tpchload.yaml > config.properties > default.
// Passing --connection together with granular server flags is an error.
func ResolveConnectionParams(
	connStringFlag string,
	flags *GranularConnFlags,
	env *EnvVars,
	project *config.ProjectConfig,
	props *config.Properties,
) (*tpch.ConnectionConfig, error) {
	if flags == nil {
		flags = &GranularConnFlags{}
	}
	if env == nil {
		env = &EnvVars{}
	}
	if project == nil {
		project = &config.ProjectConfig{}
	}
	if props == nil {
		props = &config.Properties{}
	}

	if connStringFlag != "" && !flags.IsEmpty() {
		return nil, fmt.Errorf("cannot specify both --connection and granular flags (--host, --port, --username, --sslmode): %w", tpch.ErrInvalidConfig)
	}

	connStr := connStringFlag
	if connStr == "" && flags.IsEmpty() {
		connStr = firstNonEmpty(env.TPCH_CONNECTION_STRING, env.DATABASE_URL)
	}

	var cfg *tpch.ConnectionConfig
	var err error
	if connStr != "" {
		cfg, err = ParseConnectionString(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string: %w: %w", tpch.ErrInvalidConfig, err)
		}
		if cfg.Password == "" {
			cfg.Password = firstNonEmpty(env.PGPASSWORD, props.Password)
		}
		if flags.Database != "" {
			cfg.Database = flags.Database
		}
		if cfg.SSLMode == "" {
			cfg.SSLMode = firstNonEmpty(env.PGSSLMODE, DefaultSSLMode)
		}
	} else {
		cfg, err = resolveFromGranularParams(flags, env, &project.Connection, props)
		if err != nil {
			return nil, err
		}
	}

	pc := project.Connection
	methodName := firstNonEmpty(flags.AuthMethod, pc.AuthMethod)
	method, err := tpch.ParseAuthMethod(methodName)
	if err != nil {
		return nil, err
	}
	cfg.AuthMethod = method
	cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, pc.AWSRegion, env.AWS_REGION)
	cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	applyAzureAuth(cfg, &pc, env, methodName != "")

	if cfg.AppName == "" {
		cfg.AppName = tpch.AppName
	}
	return cfg, nil
}

func resolveFromGranularParams(
	flags *GranularConnFlags,
	env *EnvVars,
	pc *config.ConnectionConfig,
	props *config.Properties,
) (*tpch.ConnectionConfig, error) {
	cfg := &tpch.ConnectionConfig{
		AdditionalParams: make(map[string]string),
		Host:             firstNonEmpty(flags.Host, env.PGHOST, pc.Host, props.Host, "localhost"),
		Username:         firstNonEmpty(flags.Username, env.PGUSER, pc.Username, props.User),
		Password:         firstNonEmpty(env.PGPASSWORD, props.Password),
		Database:         firstNonEmpty(flags.Database, env.PGDATABASE, pc.Database, props.Database, tpch.DefaultDatabase),
		SSLMode:          firstNonEmpty(flags.SSLMode, env.PGSSLMODE, pc.SSLMode, DefaultSSLMode),
	}

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case env.PGPORT != "":
		port, err := strconv.Atoi(env.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", env.PGPORT, tpch.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	case props.Port != 0:
		cfg.Port = props.Port
	default:
		cfg.Port = tpch.DefaultPort
	}
	return cfg, nil
}

// applyAzureAuth attaches Azure identifiers when Entra ID was chosen, or
// switches to it when identifiers are present and no method was chosen.
// The client secret only comes from the environment.
func applyAzureAuth(cfg *tpch.ConnectionConfig, pc *config.ConnectionConfig, env *EnvVars, explicit bool) {
	if explicit && cfg.AuthMethod != tpch.AuthMethodAzureEntraID {
		return
	}
	tenantID := firstNonEmpty(pc.AzureTenantID, env.AZURE_TENANT_ID)
	clientID := firstNonEmpty(pc.AzureClientID, env.AZURE_CLIENT_ID)
	if tenantID == "" && clientID == "" {
		return
	}
	cfg.AuthMethod = tpch.AuthMethodAzureEntraID
	cfg.AzureTenantID = tenantID
	cfg.AzureClientID = clientID
	cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
