package sqlscript

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqlOf(stmts []Statement) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.SQL
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "simple statements",
			script: "CREATE TABLE A (X INT);\nCREATE TABLE B (Y INT);\n",
			want:   []string{"CREATE TABLE A (X INT)", "CREATE TABLE B (Y INT)"},
		},
		{
			name:   "trailing statement without semicolon",
			script: "SELECT 1;\nSELECT 2",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:   "empty fragments discarded",
			script: ";;  ;\n\nSELECT 1;;\n  ;",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "semicolon in single quotes",
			script: "INSERT INTO REGION VALUES (0, 'AFRICA', 'a; b');INSERT INTO REGION VALUES (1, 'x', 'y');",
			want: []string{
				"INSERT INTO REGION VALUES (0, 'AFRICA', 'a; b')",
				"INSERT INTO REGION VALUES (1, 'x', 'y')",
			},
		},
		{
			name:   "escaped quote",
			script: "INSERT INTO T VALUES ('it''s; fine');SELECT 1;",
			want:   []string{"INSERT INTO T VALUES ('it''s; fine')", "SELECT 1"},
		},
		{
			name:   "semicolon in double-quoted identifier",
			script: `CREATE TABLE "odd;name" ("a""b" INT);SELECT 1;`,
			want:   []string{`CREATE TABLE "odd;name" ("a""b" INT)`, "SELECT 1"},
		},
		{
			name:   "dollar quoted body",
			script: "CREATE FUNCTION f() RETURNS INT AS $$ SELECT 1; $$ LANGUAGE sql;SELECT 2;",
			want:   []string{"CREATE FUNCTION f() RETURNS INT AS $$ SELECT 1; $$ LANGUAGE sql", "SELECT 2"},
		},
		{
			name:   "tagged dollar quote containing $$",
			script: "SELECT $body$ a $$; b $body$;SELECT 3;",
			want:   []string{"SELECT $body$ a $$; b $body$", "SELECT 3"},
		},
		{
			name:   "positional parameter is not a quote",
			script: "SELECT $1;SELECT 2;",
			want:   []string{"SELECT $1", "SELECT 2"},
		},
		{
			name:   "dollar inside identifier",
			script: "SELECT a$b$c FROM t;SELECT 2;",
			want:   []string{"SELECT a$b$c FROM t", "SELECT 2"},
		},
		{
			name:   "comments removed and comment-only fragments dropped",
			script: "-- header; with semicolon\nCREATE TABLE A (X INT); -- trailing\n/* block; */\n;\nSELECT /* inline */ 1;",
			want:   []string{"CREATE TABLE A (X INT)", "SELECT   1"},
		},
		{
			name:   "nested block comment",
			script: "/* outer /* inner; */ still; */SELECT 1;",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "comment markers inside quotes are text",
			script: "SELECT '-- not a comment', '/* nor this */';",
			want:   []string{"SELECT '-- not a comment', '/* nor this */'"},
		},
		{
			name:   "minus and slash operators",
			script: "SELECT 4 - 2, 8 / 2;",
			want:   []string{"SELECT 4 - 2, 8 / 2"},
		},
		{
			name:   "escape string constant honours backslash",
			script: `INSERT INTO SUPPLIER VALUES (1, E'O\'Brien; ltd');SELECT 2;`,
			want:   []string{`INSERT INTO SUPPLIER VALUES (1, E'O\'Brien; ltd')`, "SELECT 2"},
		},
		{
			name:   "backslash is literal in standard strings",
			script: `SELECT 'C:\';SELECT 2;`,
			want:   []string{`SELECT 'C:\'`, "SELECT 2"},
		},
		{
			name:   "identifier ending in e before quote is not a prefix",
			script: `SELECT name'x\';SELECT 2;`,
			want:   []string{`SELECT name'x\'`, "SELECT 2"},
		},
		{
			name:   "empty script",
			script: "  \n -- nothing\n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := Split(tt.script)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sqlOf(stmts))
		})
	}
}

func TestSplit_OrdinalsAndLines(t *testing.T) {
	script := "-- TPC-H\n\nCREATE TABLE REGION (R INT);\n\n  CREATE TABLE NATION (\n  N INT\n);\n"
	stmts, err := Split(script)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assert.Equal(t, 1, stmts[0].Ordinal)
	assert.Equal(t, 3, stmts[0].Line)
	assert.Equal(t, 2, stmts[1].Ordinal)
	assert.Equal(t, 5, stmts[1].Line)
}

func TestSplit_Unterminated(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"single quote", "SELECT 1;\nSELECT 'oops;", "single-quoted string opened on line 2"},
		{"block comment", "/* never closed", "block comment opened on line 1"},
		{"dollar quote", "SELECT $$ body;", "dollar-quoted string opened on line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.script)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnterminated)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScanner_StreamsStatements(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 1201; i++ {
		b.WriteString("INSERT INTO REGION VALUES (1, 'a;b', 'c');\n")
	}

	sc := NewScanner(strings.NewReader(b.String()))
	n := 0
	for sc.Next() {
		n++
		assert.Equal(t, n, sc.Statement().Ordinal)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 1201, n)
	assert.False(t, sc.Next(), "Next after exhaustion")
}

func TestSplit_BackslashEscapes(t *testing.T) {
	script := "INSERT INTO SUPPLIER VALUES (1, 'O\\'Brien; ltd', 'a\\\\');\nINSERT INTO SUPPLIER VALUES (2, 'plain', 'x');"

	_, err := Split(script)
	require.Error(t, err, "standard strings end at the backslash-quote")
	assert.ErrorIs(t, err, ErrUnterminated)

	stmts, err := Split(script, WithBackslashEscapes())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"INSERT INTO SUPPLIER VALUES (1, 'O\\'Brien; ltd', 'a\\\\')",
		"INSERT INTO SUPPLIER VALUES (2, 'plain', 'x')",
	}, sqlOf(stmts))
	assert.Equal(t, 2, stmts[1].Line)
}

func TestSplit_BytesPassThroughUnchanged(t *testing.T) {
	tests := []struct {
		name string
		stmt string
	}{
		{"latin-1 byte", "INSERT INTO NATION VALUES (1, 'Caf\xe9')"},
		{"truncated multi-byte sequence", "INSERT INTO NATION VALUES (2, '\xe2\x82')"},
		{"valid utf-8", "INSERT INTO NATION VALUES (3, 'Zürich ✓')"},
		{"invalid byte outside quotes", "SELECT 1 \xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := Split(tt.stmt + ";SELECT 2;")
			require.NoError(t, err)
			require.Len(t, stmts, 2)
			assert.Equal(t, []byte(tt.stmt), []byte(stmts[0].SQL))
		})
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestScanner_ReadError(t *testing.T) {
	boom := errors.New("disk gone")
	sc := NewScanner(io.MultiReader(strings.NewReader("SELECT 1;"), failingReader{boom}))

	require.True(t, sc.Next())
	assert.Equal(t, "SELECT 1", sc.Statement().SQL)
	assert.False(t, sc.Next())
	assert.ErrorIs(t, sc.Err(), boom)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "CREATE TABLE X (A INT)", Preview("CREATE TABLE X\n   (A INT)", 200))
	assert.Equal(t, "CREATE...", Preview("CREATE TABLE X", 9))
}
