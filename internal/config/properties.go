package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// PropertiesFileName is the KEY=VALUE file read by earlier loader versions.
const PropertiesFileName = "config.properties"

// Properties holds the values of config.properties. Unlike tpchload.yaml it
// may carry the password and the IAM role, because it is a file rather than
// a command line.
type Properties struct {
	Host       string
	Port       int
	Database   string
	User       string
	Password   string
	Bucket     string
	Prefix     string
	IAMRoleARN string
}

// LoadProperties reads config.properties from dir. It returns
// ErrConfigNotFound when the file is absent.
func LoadProperties(dir string) (*Properties, error) {
	path := filepath.Join(dir, PropertiesFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	props := &Properties{
		Host:       strings.TrimSpace(values["HOST"]),
		Database:   strings.TrimSpace(values["DB_NAME"]),
		User:       strings.TrimSpace(values["USER"]),
		Password:   values["PASSWORD"],
		Bucket:     strings.TrimSpace(values["S3_BUCKET"]),
		Prefix:     strings.TrimSpace(values["S3_PREFIX"]),
		IAMRoleARN: strings.TrimSpace(values["IAM_ROLE_ARN"]),
	}
	if raw := strings.TrimSpace(values["PORT"]); raw != "" {
		props.Port, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q in %s: must be an integer", raw, path)
		}
	}
	return props, nil
}

// Merge fills fields of cfg that are still empty from p.
func (p *Properties) Merge(cfg *ProjectConfig) {
	if p == nil || cfg == nil {
		return
	}
	fill(&cfg.Connection.Host, p.Host)
	fill(&cfg.Connection.Database, p.Database)
	fill(&cfg.Connection.Username, p.User)
	fill(&cfg.Load.Bucket, p.Bucket)
	fill(&cfg.Load.Prefix, p.Prefix)
	if cfg.Connection.Port == 0 {
		cfg.Connection.Port = p.Port
	}
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
