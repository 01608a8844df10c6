package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

const redacted = "***"

// CopyStrategy loads each table with a single COPY ... FROM 's3://...'.
type CopyStrategy struct {
	source tpch.CopySource
	logger tpch.Logger
}

// NewCopyStrategy creates a CopyStrategy. Panics if logger is nil.
func NewCopyStrategy(source tpch.CopySource, logger tpch.Logger) *CopyStrategy {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CopyStrategy{source: source, logger: logger}
}

func (s *CopyStrategy) Kind() tpch.Strategy { return tpch.StrategyCopy }

func (s *CopyStrategy) LoadTable(ctx context.Context, session tpch.Session, spec tpch.TableSpec) error {
	if !s.source.HasCredential() {
		return fmt.Errorf("no IAM role or access key configured for COPY")
	}
	s.logger.Verbose("Running: %s", RedactedCopyStatement(s.source, spec))
	if _, err := session.Exec(ctx, CopyStatement(s.source, spec)); err != nil {
		return fmt.Errorf("COPY from %s: %w", s.source.URI(spec.SourceFile), err)
	}
	return nil
}

// CopyStatement renders the COPY command for spec, including credentials.
func CopyStatement(src tpch.CopySource, spec tpch.TableSpec) string {
	return buildCopy(src, spec, false)
}

// RedactedCopyStatement renders the COPY command with secrets masked.
func RedactedCopyStatement(src tpch.CopySource, spec tpch.TableSpec) string {
	return buildCopy(src, spec, true)
}

func buildCopy(src tpch.CopySource, spec tpch.TableSpec, redact bool) string {
	delimiter := src.FieldDelimiter
	if delimiter == "" {
		delimiter = tpch.DefaultFieldDelimiter
	}
	dateFormat := src.DateFormat
	if dateFormat == "" {
		dateFormat = tpch.DefaultDateFormat
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "COPY %s FROM %s", spec.Name, quoteLiteral(src.URI(spec.SourceFile)))
	sb.WriteString(" " + credentialClause(src, redact))
	if src.Region != "" {
		fmt.Fprintf(&sb, " REGION %s", quoteLiteral(src.Region))
	}
	fmt.Fprintf(&sb, " DELIMITER %s DATEFORMAT %s", quoteLiteral(delimiter), quoteLiteral(dateFormat))
	return sb.String()
}

// credentialClause prefers the IAM role over an access key pair.
func credentialClause(src tpch.CopySource, redact bool) string {
	if src.IAMRoleARN != "" {
		role := src.IAMRoleARN
		if redact {
			role = redactARN(role)
		}
		return "IAM_ROLE " + quoteLiteral(role)
	}

	secret, token := src.SecretAccessKey, src.SessionToken
	if redact {
		secret = redacted
		if token != "" {
			token = redacted
		}
	}
	cred := fmt.Sprintf("aws_access_key_id=%s;aws_secret_access_key=%s", src.AccessKeyID, secret)
	if token != "" {
		cred += ";token=" + token
	}
	return "CREDENTIALS " + quoteLiteral(cred)
}

// redactARN keeps the role name and hides the account id.
func redactARN(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) == 6 && parts[0] == "arn" {
		parts[4] = redacted
		return strings.Join(parts, ":")
	}
	return redacted
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
