package tpch_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, tpch.ExitSuccess},
		{"unknown flag", errors.New("unknown flag: --foo"), tpch.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x' in -x"), tpch.ExitUsageError},
		{"accepts args", errors.New("accepts 0 arg(s), received 1"), tpch.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--port\""), tpch.ExitUsageError},
		{"general error", errors.New("something went wrong"), tpch.ExitGeneralError},
		{"invalid config", fmt.Errorf("bucket missing: %w", tpch.ErrInvalidConfig), tpch.ExitConfigError},
		{"connection failed", fmt.Errorf("acquire: %w", tpch.ErrConnectionFailed), tpch.ExitConnectionError},
		{"raw connection refused", errors.New("dial tcp: connection refused"), tpch.ExitConnectionError},
		{"schema", fmt.Errorf("statement 3: %w", tpch.ErrSchema), tpch.ExitSchemaError},
		{"incomplete", fmt.Errorf("%w: 1 table failed", tpch.ErrIncomplete), tpch.ExitIncomplete},
		{"bare load failure", tpch.ErrLoad, tpch.ExitIncomplete},
		{"verification mismatch", tpch.ErrVerificationMismatch, tpch.ExitIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tpch.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
