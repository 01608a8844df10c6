package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleLogger writes log lines to stderr. The report goes to stdout, so
// nothing written here can interleave with it.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	out     io.Writer
	prefix  string
	mu      sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger on stderr.
// Verbose calls are no-ops unless verbose is true.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to w.
func NewConsoleLoggerTo(w io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{verbose: verbose, out: w}
}

// WithRunID tags every subsequent line with a short run identifier.
func (l *ConsoleLogger) WithRunID(id string) *ConsoleLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		l.prefix = ""
	} else {
		l.prefix = "(" + id + ") "
	}
	return l
}

func (l *ConsoleLogger) write(level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	fmt.Fprint(l.out, level+l.prefix+msg+"\n")
}

// Verbose logs per-statement and timing detail when verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("[VERBOSE] ", format, args)
}

// Info logs stage progress.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Warn logs recorded failures that do not stop the run.
func (l *ConsoleLogger) Warn(format string, args ...interface{}) {
	l.write("[WARN] ", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write("[ERROR] ", format, args)
}
