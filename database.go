package memsql

import (
	"log/slog"

	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/sql/executor"
)

// DB is one store plus the executor that serializes statements against it.
// It is safe for concurrent use.
type DB struct {
	ex *executor.Executor
}

// New returns an empty database. A nil logger means slog.Default().
func New(logger *slog.Logger) *DB {
	return &DB{ex: executor.NewExecutor(engine.NewStore(), logger)}
}

// Exec runs the first statement of sql.
func (db *DB) Exec(sql string) (*Result, error) {
	return db.ex.ExecSQL(sql)
}

// Query runs sql and returns its textual result: a status line or JSON.
func (db *DB) Query(sql string) (string, error) {
	res, err := db.ex.ExecSQL(sql)
	if err != nil {
		return "", err
	}
	return res.Text()
}

func (db *DB) Tables() []string {
	return db.ex.Tables()
}
