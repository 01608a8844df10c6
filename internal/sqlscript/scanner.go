// Package sqlscript splits SQL scripts into individual statements.
//
// Splitting is quote-aware: a semicolon inside a single-quoted literal, a
// double-quoted identifier, a dollar-quoted body or a comment does not end a
// statement. Comments are removed from the emitted text and fragments that
// contain nothing but whitespace or comments are discarded.
//
// The scanner works on bytes. Every delimiter and quote it recognizes is
// ASCII, so multi-byte text and bytes that are not valid UTF-8 pass through
// unchanged and are left for the server to accept or reject.
//
// Backslash escapes inside single quotes are honoured for E'...' strings,
// and for every single-quoted string when WithBackslashEscapes is set. The
// latter matches Redshift, where '\'' is an escaped quote.
//
// Scanner reads its input incrementally, so batch-insert files far larger
// than memory can be streamed statement by statement.
package sqlscript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnterminated is returned when the input ends inside a quote or block comment.
var ErrUnterminated = errors.New("unterminated quoted text or comment")

// Statement is one executable statement without its terminating semicolon.
type Statement struct {
	Ordinal int    // 1-based position among emitted statements
	Line    int    // line of the statement's first significant character
	SQL     string // trimmed statement text with comments removed
}

type scanState int

const (
	stateNormal scanState = iota
	stateLineComment
	stateBlockComment
	stateSingleQuote
	stateDoubleQuote
	stateDollarQuote
)

func (s scanState) String() string {
	switch s {
	case stateLineComment:
		return "line comment"
	case stateBlockComment:
		return "block comment"
	case stateSingleQuote:
		return "single-quoted string"
	case stateDoubleQuote:
		return "double-quoted identifier"
	case stateDollarQuote:
		return "dollar-quoted string"
	default:
		return "statement"
	}
}

// Scanner yields statements from a reader, following the bufio.Scanner idiom:
//
//	sc := sqlscript.NewScanner(f)
//	for sc.Next() {
//	    stmt := sc.Statement()
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	r   *bufio.Reader
	buf strings.Builder

	state      scanState
	blockDepth int
	dollarTag  string
	bodyStart  int  // buf offset just after an opening dollar tag
	escapes    bool // current single-quoted string honours backslash escapes

	backslashEscapes bool

	line      int // current input line
	stmtLine  int // line of the first significant byte of buf, 0 if none yet
	openLine  int // line where the current quote or comment opened
	ordinal   int
	statement Statement
	err       error
	done      bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithBackslashEscapes treats a backslash in any single-quoted string as
// escaping the byte after it.
func WithBackslashEscapes() Option {
	return func(s *Scanner) { s.backslashEscapes = true }
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader, opts ...Option) *Scanner {
	s := &Scanner{r: bufio.NewReaderSize(r, 64*1024), line: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next advances to the next statement. It returns false at the end of input
// or on error; Err distinguishes the two.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
				return false
			}
			if s.state != stateNormal && s.state != stateLineComment {
				s.err = fmt.Errorf("%w: %s opened on line %d", ErrUnterminated, s.state, s.openLine)
				return false
			}
			return s.emit()
		}
		if s.consume(b) && s.emit() {
			return true
		}
	}
}

// Statement returns the statement produced by the last successful Next.
func (s *Scanner) Statement() Statement {
	return s.statement
}

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error {
	return s.err
}

// Split splits a whole script held in memory.
func Split(script string, opts ...Option) ([]Statement, error) {
	sc := NewScanner(strings.NewReader(script), opts...)
	var stmts []Statement
	for sc.Next() {
		stmts = append(stmts, sc.Statement())
	}
	return stmts, sc.Err()
}

// consume processes one byte and reports whether it terminated a statement.
func (s *Scanner) consume(b byte) bool {
	line := s.line
	if b == '\n' {
		s.line++
	}

	switch s.state {
	case stateNormal:
		switch {
		case b == ';':
			return true
		case b == '-' && s.peekIs('-'):
			s.skip()
			s.state = stateLineComment
		case b == '/' && s.peekIs('*'):
			s.skip()
			s.state = stateBlockComment
			s.blockDepth = 1
			s.openLine = line
			s.buf.WriteByte(' ')
		case b == '\'':
			s.escapes = s.backslashEscapes || s.afterEscapePrefix()
			s.open(stateSingleQuote, b, line)
		case b == '"':
			s.open(stateDoubleQuote, b, line)
		case b == '$' && !s.afterIdentifier():
			s.mark(line)
			s.readDollar(line)
		default:
			if !isSpace(b) {
				s.mark(line)
			}
			s.buf.WriteByte(b)
		}

	case stateLineComment:
		if b == '\n' {
			s.buf.WriteByte('\n')
			s.state = stateNormal
		}

	case stateBlockComment:
		switch {
		case b == '/' && s.peekIs('*'):
			s.skip()
			s.blockDepth++
		case b == '*' && s.peekIs('/'):
			s.skip()
			s.blockDepth--
			if s.blockDepth == 0 {
				s.state = stateNormal
			}
		case b == '\n':
			s.buf.WriteByte('\n')
		}

	case stateSingleQuote, stateDoubleQuote:
		s.buf.WriteByte(b)
		if b == '\\' && s.state == stateSingleQuote && s.escapes {
			if next, ok := s.peek(); ok {
				s.skip()
				s.buf.WriteByte(next)
				if next == '\n' {
					s.line++
				}
			}
			return false
		}
		quote := byte('\'')
		if s.state == stateDoubleQuote {
			quote = '"'
		}
		if b == quote {
			if s.peekIs(quote) {
				s.skip()
				s.buf.WriteByte(quote)
			} else {
				s.state = stateNormal
				s.escapes = false
			}
		}

	case stateDollarQuote:
		s.buf.WriteByte(b)
		if s.buf.Len()-s.bodyStart >= len(s.dollarTag) && strings.HasSuffix(s.buf.String(), s.dollarTag) {
			s.state = stateNormal
			s.dollarTag = ""
		}
	}
	return false
}

// readDollar handles a '$' in normal state. "$tag$" and "$$" open a dollar
// quote; anything else such as a "$1" placeholder is ordinary text.
func (s *Scanner) readDollar(line int) {
	var tag strings.Builder
	tag.WriteByte('$')
	for {
		b, ok := s.peek()
		switch {
		case ok && b == '$':
			s.skip()
			tag.WriteByte('$')
			s.buf.WriteString(tag.String())
			s.state = stateDollarQuote
			s.dollarTag = tag.String()
			s.bodyStart = s.buf.Len()
			s.openLine = line
			return
		case ok && isTagByte(b, tag.Len() == 1):
			s.skip()
			tag.WriteByte(b)
		default:
			s.buf.WriteString(tag.String())
			return
		}
	}
}

func isTagByte(b byte, first bool) bool {
	switch {
	case b == '_', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return !first
	}
	return false
}

// afterIdentifier reports whether buf ends inside a word, where '$' is part
// of the identifier rather than a quote opener.
func (s *Scanner) afterIdentifier() bool {
	text := s.buf.String()
	if text == "" {
		return false
	}
	return isTagByte(text[len(text)-1], false)
}

// afterEscapePrefix reports whether buf ends with a standalone E or e, the
// prefix of an escape string constant.
func (s *Scanner) afterEscapePrefix() bool {
	text := s.buf.String()
	n := len(text)
	if n == 0 || (text[n-1] != 'E' && text[n-1] != 'e') {
		return false
	}
	return n == 1 || !isTagByte(text[n-2], false)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func (s *Scanner) open(state scanState, b byte, line int) {
	s.mark(line)
	s.buf.WriteByte(b)
	s.state = state
	s.openLine = line
}

func (s *Scanner) mark(line int) {
	if s.stmtLine == 0 {
		s.stmtLine = line
	}
}

func (s *Scanner) peek() (byte, bool) {
	b, err := s.r.Peek(1)
	if err != nil || len(b) == 0 {
		return 0, false
	}
	return b[0], true
}

func (s *Scanner) peekIs(want byte) bool {
	b, ok := s.peek()
	return ok && b == want
}

// skip discards one byte that peek already returned.
func (s *Scanner) skip() {
	_, _ = s.r.ReadByte()
}

func (s *Scanner) emit() bool {
	text := strings.TrimSpace(s.buf.String())
	line := s.stmtLine
	s.buf.Reset()
	s.stmtLine = 0
	if text == "" {
		return false
	}
	s.ordinal++
	s.statement = Statement{Ordinal: s.ordinal, Line: line, SQL: text}
	return true
}

// Preview shortens a statement for error messages, collapsing whitespace.
func Preview(sql string, max int) string {
	flat := []rune(strings.Join(strings.Fields(sql), " "))
	if max <= 3 || len(flat) <= max {
		return string(flat)
	}
	return string(flat[:max-3]) + "..."
}
