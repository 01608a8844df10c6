package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is one message captured by RecordingLogger.
type Entry struct {
	Level   string
	Message string
}

// RecordingLogger keeps every message in memory.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) add(level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.entries = append(l.entries, Entry{Level: level, Message: msg})
}

func (l *RecordingLogger) Verbose(format string, args ...interface{}) { l.add("verbose", format, args) }
func (l *RecordingLogger) Info(format string, args ...interface{})    { l.add("info", format, args) }
func (l *RecordingLogger) Warn(format string, args ...interface{})    { l.add("warn", format, args) }
func (l *RecordingLogger) Error(format string, args ...interface{})   { l.add("error", format, args) }

// Entries returns a copy of the captured messages.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Contains reports whether any message at level contains substr.
// An empty level matches all levels.
func (l *RecordingLogger) Contains(level, substr string) bool {
	for _, e := range l.Entries() {
		if (level == "" || e.Level == level) && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
