package repl

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/record"
	"github.com/tuannm99/memsql/internal/sql/executor"
)

// scriptReader replays fixed lines and records prompts.
type scriptReader struct {
	lines   []string
	errs    map[int]error
	pos     int
	prompts []string
	saved   []string
}

func (r *scriptReader) Readline() (string, error) {
	if err, ok := r.errs[r.pos]; ok {
		r.pos++
		return "", err
	}
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	l := r.lines[r.pos]
	r.pos++
	return l, nil
}

func (r *scriptReader) SetPrompt(p string) { r.prompts = append(r.prompts, p) }

func (r *scriptReader) SaveHistory(s string) error {
	r.saved = append(r.saved, s)
	return nil
}

func (r *scriptReader) Close() error { return nil }

func newEmbedded() *executor.Executor {
	return executor.NewExecutor(engine.NewStore(), nil)
}

func runShell(t *testing.T, cfg Config, ex *executor.Executor, lines ...string) (string, string) {
	t.Helper()
	var out, errw bytes.Buffer
	if cfg.Tables == nil {
		cfg.Tables = ex.Tables
	}
	sh := NewShell(cfg, &scriptReader{lines: lines}, &out, &errw, ex.ExecSQL)
	require.NoError(t, sh.Run())
	return out.String(), errw.String()
}

func TestShell_LinePerStatement(t *testing.T) {
	out, errw := runShell(t, Config{}, newEmbedded(),
		"CREATE TABLE t (a TEXT)",
		"INSERT INTO t VALUES ('x');",
		"INSERT INTO t VALUES ('y');",
		"SELECT * FROM t;",
		"DELETE FROM t WHERE a = 1;",
		"UPDATE t SET a = 'z';",
		"EXIT",
		"SELECT * FROM t;",
	)

	require.Equal(t, strings.Join([]string{
		"Table 't' created",
		"Row inserted",
		"Row inserted",
		`{"name":"t","columns":["a"],"rows":[["x"],["y"]]}`,
		"0 rows deleted",
		"",
	}, "\n"), out)
	require.Equal(t, "Error: No WHERE condition specified for UPDATE\n", errw)
}

func TestShell_Multiline(t *testing.T) {
	r := &scriptReader{lines: []string{
		"CREATE TABLE t",
		"(a INT, b TEXT);",
		"INSERT INTO t VALUES (1, 'a;b');",
		"SELECT *",
		"FROM t",
	}}
	var out, errw bytes.Buffer
	ex := newEmbedded()
	sh := NewShell(Config{Prompt: "> ", Multiline: true}, r, &out, &errw, ex.ExecSQL)
	require.NoError(t, sh.Run())

	require.Empty(t, errw.String())
	require.Contains(t, out.String(), "Table 't' created\n")
	require.Contains(t, out.String(), `[[1,"a;b"]]`)
	require.Contains(t, r.prompts, contPrompt)
	require.Equal(t, "CREATE TABLE t (a INT, b TEXT);", r.saved[0])
}

func TestShell_MetaCommands(t *testing.T) {
	ex := newEmbedded()
	out, errw := runShell(t, Config{}, ex,
		"\\dt",
		"CREATE TABLE b (x INT);",
		"CREATE TABLE a (x INT);",
		"INSERT INTO a VALUES (1);",
		"\\dt",
		"\\table",
		"SELECT * FROM a;",
		"\\json",
		"\\nope",
		"\\history",
	)

	require.Contains(t, out, "(no tables)\n")
	require.Contains(t, out, "a\nb\n")
	require.Contains(t, out, "output mode: table")
	require.Contains(t, out, "(1 rows)")
	require.Contains(t, out, "    4  SELECT * FROM a;")
	require.Equal(t, "unknown command: \\nope\n", errw)
}

func TestShell_InterruptDropsPending(t *testing.T) {
	// read #1 is Ctrl+C, the placeholder line at that index is skipped
	r := &scriptReader{
		lines: []string{"CREATE TABLE t", "", "CREATE TABLE u (a INT);"},
		errs:  map[int]error{1: readline.ErrInterrupt},
	}

	var out, errw bytes.Buffer
	ex := newEmbedded()
	sh := NewShell(Config{Multiline: true}, r, &out, &errw, ex.ExecSQL)
	require.NoError(t, sh.Run())

	require.Equal(t, "Table 'u' created\n", out.String())
	require.Equal(t, []string{"u"}, ex.Tables())
}

func TestShell_HistoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "hist")

	h := NewHistory(path, 2)
	require.NoError(t, h.Load())
	runShell(t, Config{History: h}, newEmbedded(),
		"CREATE TABLE t (a INT);",
		"INSERT   INTO t\tVALUES (1);",
		"SELECT * FROM t;",
	)

	again := NewHistory(path, 2)
	require.NoError(t, again.Load())
	require.Equal(t, []string{"INSERT INTO t VALUES (1);", "SELECT * FROM t;"}, again.Lines())

	r := &scriptReader{}
	NewShell(Config{History: again}, r, io.Discard, io.Discard, newEmbedded().ExecSQL)
	require.Equal(t, again.Lines(), r.saved)
}

func TestScanReader(t *testing.T) {
	ex := newEmbedded()
	var out, errw bytes.Buffer
	in := NewScanReader(strings.NewReader("CREATE TABLE t (a INT);\nSELECT * FROM t;\n"))

	require.NoError(t, NewShell(Config{}, in, &out, &errw, ex.ExecSQL).Run())
	require.Equal(t, "Table 't' created\n{\"name\":\"t\",\"columns\":[\"a\"],\"rows\":[]}\n", out.String())
}

func TestRender_Table(t *testing.T) {
	res := &executor.Result{
		Table:   "t",
		Columns: []string{"id", "name"},
		Rows: []record.Row{
			{record.Int(1), record.Text("a very long name")},
			{record.Float(2), record.Null()},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res, ModeTable, RenderOptions{MaxWidth: 6}))
	out := buf.String()

	require.Contains(t, out, "id")
	require.Contains(t, out, "a ver…")
	require.NotContains(t, out, "a very long name")
	require.Contains(t, out, "2.0")
	require.Contains(t, out, "NULL")
	require.True(t, strings.HasSuffix(out, "(2 rows)\n"))

	buf.Reset()
	require.NoError(t, Render(&buf, &executor.Result{Message: "Row inserted"}, ModeTable, RenderOptions{}))
	require.Equal(t, "Row inserted\n", buf.String())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 0))
	require.Equal(t, "abc", truncate("abc", 3))
	require.Equal(t, "a…", truncate("abc", 2))
	require.Equal(t, "…", truncate("abc", 1))
}
