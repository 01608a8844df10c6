package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents how the report is rendered.
type Mode int

const (
	// ModePlain is used for pipes, files, CI logs, and NO_COLOR.
	ModePlain Mode = iota
	// ModeStyled is used when a human is watching the terminal.
	ModeStyled
)

// DetectMode determines whether output written to f should be styled.
//
// Returns ModePlain if:
//   - TPCH_PLAIN=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
//   - f is not a terminal
//
// Returns ModeStyled otherwise.
func DetectMode(f *os.File) Mode {
	if os.Getenv("TPCH_PLAIN") == "1" {
		return ModePlain
	}
	if os.Getenv("CI") != "" {
		return ModePlain
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModePlain
	}
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return ModePlain
	}
	return ModeStyled
}

// IsStyled is a convenience function that returns true if f gets styled output.
func IsStyled(f *os.File) bool {
	return DetectMode(f) == ModeStyled
}
