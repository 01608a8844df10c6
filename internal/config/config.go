// Package config reads tpchload.yaml and the legacy config.properties file.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig holds non-secret connection settings.
// Passwords never live here; they come from the environment or config.properties.
type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
}

// LoadConfig selects and parameterizes the ingestion strategy.
type LoadConfig struct {
	Strategy   string `yaml:"strategy"`
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
	Region     string `yaml:"region,omitempty"`
	Delimiter  string `yaml:"delimiter,omitempty"`
	DateFormat string `yaml:"date_format,omitempty"`
	DataDir    string `yaml:"data_dir,omitempty"`
	BatchSize  int    `yaml:"batch_size,omitempty"`
	FailFast   bool   `yaml:"fail_fast,omitempty"`

	BackslashEscapes bool `yaml:"backslash_escapes,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Load       LoadConfig       `yaml:"load"`
	DDL        string           `yaml:"ddl,omitempty"` // path of a DDL script replacing the built-in one
	Timeout    string           `yaml:"timeout"`
}

const ConfigFileName = "tpchload.yaml"

// Load reads tpchload.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
