package executor

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/record"
	"github.com/tuannm99/memsql/internal/sql/parser"
	"github.com/tuannm99/memsql/internal/sql/planner"
)

// ---- helpers ----

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return NewExecutor(engine.NewStore(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func mustExec(t *testing.T, e *Executor, sql string) *Result {
	t.Helper()
	res, err := e.ExecSQL(sql)
	require.NoError(t, err, sql)
	return res
}

func mustText(t *testing.T, e *Executor, sql string) string {
	t.Helper()
	out, err := mustExec(t, e, sql).Text()
	require.NoError(t, err)
	return out
}

// ---- fakes ----

// recordingStore wraps a real store and counts mutating calls.
type recordingStore struct {
	*engine.Store
	mutations int
}

func (r *recordingStore) InsertRows(name string, rows []record.Row) error {
	r.mutations++
	return r.Store.InsertRows(name, rows)
}

func (r *recordingStore) UpdateRows(name string, a []engine.Assignment, p engine.Predicate) (int64, error) {
	r.mutations++
	return r.Store.UpdateRows(name, a, p)
}

func (r *recordingStore) DeleteRows(name string, p engine.Predicate) (int64, error) {
	r.mutations++
	return r.Store.DeleteRows(name, p)
}

// ---- tests ----

func TestExec_ConcreteScenario(t *testing.T) {
	e := newTestExecutor(t)

	require.Equal(t, "Table 't' created", mustText(t, e, "CREATE TABLE t (a TEXT);"))
	require.Equal(t, "Row inserted", mustText(t, e, "INSERT INTO t VALUES ('x');"))
	require.Equal(t, "Row inserted", mustText(t, e, "INSERT INTO t VALUES ('y');"))

	require.Equal(t,
		`{"name":"t","columns":["a"],"rows":[["x"],["y"]]}`,
		mustText(t, e, "SELECT * FROM t;"))

	require.Equal(t, "0 rows deleted", mustText(t, e, "DELETE FROM t WHERE a = 1;"))

	res := mustExec(t, e, "SELECT * FROM t;")
	require.Len(t, res.Rows, 2)
}

func TestExec_FilteredSelect(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE users (id INT, name TEXT, score DOUBLE);")
	mustExec(t, e, "INSERT INTO users VALUES (1, 'a', 1.0), (2, 'b', 2.5), (3, 'c', NULL);")

	require.Equal(t, `[[2,"b",2.5],[3,"c",null]]`, mustText(t, e, "SELECT * FROM users WHERE id > 1;"))
	require.Equal(t, `[[1,"a",1.0]]`, mustText(t, e, "SELECT * FROM users WHERE name = 'a';"))
	require.Equal(t, `[]`, mustText(t, e, "SELECT * FROM users WHERE id > 100;"))
	require.Equal(t, `[]`, mustText(t, e, "SELECT * FROM users WHERE id = 1 AND name = 'a';"))

	res := mustExec(t, e, "SELECT * FROM users WHERE id = 2;")
	require.True(t, res.Filtered)
	require.Equal(t, []string{"id", "name", "score"}, res.Columns)
	require.Equal(t, int64(1), res.AffectedRows)
}

func TestExec_SelectResultIsDetached(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE t (a INT);")
	mustExec(t, e, "INSERT INTO t VALUES (1);")

	full := mustExec(t, e, "SELECT * FROM t;")
	filtered := mustExec(t, e, "SELECT * FROM t WHERE a = 1;")

	require.Equal(t, "1 rows updated", mustText(t, e, "UPDATE t SET a = 2 WHERE a = 1;"))

	assert.Equal(t, int64(1), full.Rows[0][0].AsInt())
	assert.Equal(t, int64(1), filtered.Rows[0][0].AsInt())
}

func TestExec_InsertMultiRowAndCoercion(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE t (a TEXT, b INT, c DOUBLE, d TEXT);")

	require.Equal(t, "Row inserted", mustText(t, e, "INSERT INTO t VALUES ('x', 1, 2.5, NULL), ('y', -2, 1e3, 0x1F);"))
	require.Equal(t,
		`{"name":"t","columns":["a","b","c","d"],"rows":[["x",1,2.5,null],["y",-2,1000.0,null]]}`,
		mustText(t, e, "SELECT * FROM t;"))
}

func TestExec_InsertSchemaMismatch(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE t (a TEXT, b INT);")

	_, err := e.ExecSQL("INSERT INTO t VALUES ('x');")
	require.ErrorIs(t, err, engine.ErrSchemaMismatch)

	// a bad second row keeps the first one out too
	_, err = e.ExecSQL("INSERT INTO t VALUES ('x', 1), ('y');")
	require.ErrorIs(t, err, engine.ErrSchemaMismatch)

	res := mustExec(t, e, "SELECT * FROM t;")
	require.Empty(t, res.Rows)
}

func TestExec_InsertWithColumnList(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE t (id INT, name TEXT);")

	mustExec(t, e, "INSERT INTO t (name, id) VALUES ('a', 1);")
	require.Equal(t, `{"name":"t","columns":["id","name"],"rows":[[1,"a"]]}`, mustText(t, e, "SELECT * FROM t;"))

	_, err := e.ExecSQL("INSERT INTO t (id) VALUES (2);")
	require.ErrorIs(t, err, engine.ErrSchemaMismatch)

	_, err = e.ExecSQL("INSERT INTO t (id, nope) VALUES (2, 'b');")
	require.ErrorIs(t, err, engine.ErrUnknownColumn)

	_, err = e.ExecSQL("INSERT INTO t (id, id) VALUES (2, 3);")
	require.ErrorIs(t, err, engine.ErrSchemaMismatch)

	_, err = e.ExecSQL("INSERT INTO t (id, name) VALUES (2);")
	require.ErrorIs(t, err, engine.ErrSchemaMismatch)
}

func TestExec_TableNotFound(t *testing.T) {
	e := newTestExecutor(t)

	for _, sql := range []string{
		"INSERT INTO nope VALUES (1);",
		"INSERT INTO nope (a) VALUES (1);",
		"SELECT * FROM nope;",
		"SELECT * FROM nope WHERE a = 1;",
		"UPDATE nope SET a = 1 WHERE a = 2;",
		"DELETE FROM nope WHERE a = 1;",
		"DROP TABLE nope;",
	} {
		_, err := e.ExecSQL(sql)
		require.ErrorIs(t, err, engine.ErrTableNotFound, sql)
	}

	require.Equal(t, "Table 'nope' does not exist", mustText(t, e, "DROP TABLE IF EXISTS nope;"))
}

func TestExec_UpdateAndDelete(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE t (id INT, name TEXT);")
	mustExec(t, e, "INSERT INTO t VALUES (1, 'a'), (2, 'b'), (3, 'c');")

	require.Equal(t, "2 rows updated", mustText(t, e, "UPDATE t SET name = 'z' WHERE id >= 2;"))
	require.Equal(t, "0 rows updated", mustText(t, e, "UPDATE t SET name = 'q' WHERE id = 9;"))
	require.Equal(t,
		`{"name":"t","columns":["id","name"],"rows":[[1,"a"],[2,"z"],[3,"z"]]}`,
		mustText(t, e, "SELECT * FROM t;"))

	require.Equal(t, "1 rows deleted", mustText(t, e, "DELETE FROM t WHERE id = 2;"))
	require.Equal(t,
		`{"name":"t","columns":["id","name"],"rows":[[1,"a"],[3,"z"]]}`,
		mustText(t, e, "SELECT * FROM t;"))

	_, err := e.ExecSQL("UPDATE t SET nope = 1 WHERE id = 1;")
	require.ErrorIs(t, err, engine.ErrUnknownColumn)
}

func TestExec_MissingFilterMutatesNothing(t *testing.T) {
	st := &recordingStore{Store: engine.NewStore()}
	e := newExecutor(st, nil)

	mustExec(t, e, "CREATE TABLE t (a INT);")
	mustExec(t, e, "INSERT INTO t VALUES (1);")
	require.Equal(t, 1, st.mutations)

	_, err := e.ExecSQL("UPDATE t SET a = 2;")
	require.ErrorIs(t, err, planner.ErrMissingFilter)
	require.Equal(t, "No WHERE condition specified for UPDATE", err.Error())

	_, err = e.ExecSQL("DELETE FROM t;")
	require.ErrorIs(t, err, planner.ErrMissingFilter)
	require.Equal(t, "No WHERE condition specified for DELETE", err.Error())

	require.Equal(t, 1, st.mutations)
	require.Equal(t, `{"name":"t","columns":["a"],"rows":[[1]]}`, mustText(t, e, "SELECT * FROM t;"))
}

func TestExec_StatementErrors(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE t (a INT);")

	_, err := e.ExecSQL("SELECT a FROM t;")
	require.ErrorIs(t, err, planner.ErrUnsupportedStatement)
	require.Equal(t, "Only SELECT * is supported", err.Error())

	_, err = e.ExecSQL("SHOW TABLES;")
	require.Equal(t, "Unsupported query", err.Error())

	_, err = e.ExecSQL("")
	require.ErrorIs(t, err, parser.ErrInvalidQuery)
	require.Equal(t, "Invalid query", err.Error())

	_, err = e.ExecSQL("SELEKT * FROM t;")
	require.ErrorIs(t, err, parser.ErrParseFailure)
}

func TestExec_OnlyFirstStatementRuns(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE t (a INT); INSERT INTO t VALUES (1);")

	res := mustExec(t, e, "SELECT * FROM t;")
	require.Empty(t, res.Rows)
}

func TestExec_CreateReplacesAndWarns(t *testing.T) {
	var logs bytes.Buffer
	e := NewExecutor(engine.NewStore(), slog.New(slog.NewTextHandler(&logs, nil)))

	mustExec(t, e, "CREATE TABLE t (a INT);")
	mustExec(t, e, "INSERT INTO t VALUES (1);")
	require.Empty(t, logs.String())

	mustExec(t, e, "CREATE TABLE t (a INT, b TEXT);")
	require.Contains(t, logs.String(), "existing table replaced")

	res := mustExec(t, e, "SELECT * FROM t;")
	require.Empty(t, res.Rows)
	require.Equal(t, []string{"a", "b"}, res.Columns)
}

func TestExec_DropTableAndTables(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE b (x INT);")
	mustExec(t, e, "CREATE TABLE a (x INT);")
	require.Equal(t, []string{"a", "b"}, e.Tables())

	require.Equal(t, "Table 'a' dropped", mustText(t, e, "DROP TABLE a;"))
	require.Equal(t, []string{"b"}, e.Tables())
}

func TestExec_ConcurrentSessionsSerialize(t *testing.T) {
	e := newTestExecutor(t)
	mustExec(t, e, "CREATE TABLE t (a INT);")

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := e.ExecSQL("INSERT INTO t VALUES (1);")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	res := mustExec(t, e, "SELECT * FROM t;")
	require.Len(t, res.Rows, workers*perWorker)
}

func TestExec_StatementCache(t *testing.T) {
	e := NewExecutor(engine.NewStore(), nil, WithStatementCache(8))
	mustExec(t, e, "CREATE TABLE t (a INT);")

	for i := 0; i < 3; i++ {
		mustExec(t, e, "INSERT INTO t VALUES (1);")
	}
	res := mustExec(t, e, "SELECT * FROM t;")
	require.Len(t, res.Rows, 3)

	hits, misses := e.CacheStats()
	require.Equal(t, uint64(2), hits)
	require.Equal(t, uint64(3), misses)

	// parse failures are not cached
	_, err := e.ExecSQL("SELEKT 1;")
	require.ErrorIs(t, err, parser.ErrParseFailure)
	_, err = e.ExecSQL("SELEKT 1;")
	require.ErrorIs(t, err, parser.ErrParseFailure)
	_, misses = e.CacheStats()
	require.Equal(t, uint64(5), misses)
}

func TestExec_CreateIfNotExistsKeepsTable(t *testing.T) {
	var logs bytes.Buffer
	e := NewExecutor(engine.NewStore(), slog.New(slog.NewTextHandler(&logs, nil)), WithStatementCache(8))

	require.Equal(t, "Table 't' created", mustText(t, e, "CREATE TABLE IF NOT EXISTS t (a TEXT);"))
	mustExec(t, e, "INSERT INTO t VALUES ('keep');")

	// twice, so the second run comes from the statement cache
	for i := 0; i < 2; i++ {
		require.Equal(t, "Table 't' already exists", mustText(t, e, "CREATE TABLE IF NOT EXISTS t (a TEXT);"))
	}
	require.Equal(t, `{"name":"t","columns":["a"],"rows":[["keep"]]}`, mustText(t, e, "SELECT * FROM t;"))
	require.NotContains(t, logs.String(), "existing table replaced")

	// the plain form still replaces
	mustExec(t, e, "CREATE TABLE t (a TEXT);")
	require.Equal(t, `{"name":"t","columns":["a"],"rows":[]}`, mustText(t, e, "SELECT * FROM t;"))
}

func TestExec_UpdateWithExpressionChangesNothing(t *testing.T) {
	st := &recordingStore{Store: engine.NewStore()}
	e := newExecutor(st, nil)
	mustExec(t, e, "CREATE TABLE t (a TEXT, b INT);")
	mustExec(t, e, "INSERT INTO t VALUES ('x', 1);")

	_, err := e.ExecSQL("UPDATE t SET b = b + 1 WHERE a = 'x';")
	require.ErrorIs(t, err, planner.ErrUnsupportedStatement)
	require.Equal(t, 1, st.mutations)
	require.Equal(t, `{"name":"t","columns":["a","b"],"rows":[["x",1]]}`, mustText(t, e, "SELECT * FROM t;"))
}

func TestExec_CommentOnlyIsInvalid(t *testing.T) {
	e := newTestExecutor(t)
	for _, sql := range []string{"-- x", "/* c */", "/* c */ ;"} {
		_, err := e.ExecSQL(sql)
		require.ErrorIs(t, err, parser.ErrInvalidQuery, sql)
		require.Equal(t, "Invalid query", err.Error())
	}
}
