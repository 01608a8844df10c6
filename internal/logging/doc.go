// Package logging provides concrete implementations of the tpch.Logger interface.
//
// ConsoleLogger writes prefixed lines to stderr (or any writer). NullLogger
// discards everything and is what tests pass when output does not matter.
// RecordingLogger keeps messages in memory so tests can assert on them.
package logging
