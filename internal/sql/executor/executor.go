package executor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/record"
	"github.com/tuannm99/memsql/internal/sql/parser"
	"github.com/tuannm99/memsql/internal/sql/planner"
	"github.com/tuannm99/memsql/internal/sql/predicate"
	"github.com/tuannm99/memsql/internal/sql/stmtcache"
)

// tableStore is a small seam for unit-testing Executor without a real store.
type tableStore interface {
	CreateTable(name string, schema record.Schema) bool
	DropTable(name string) error
	ListTables() []string
	Schema(name string) (record.Schema, error)

	InsertRows(name string, rows []record.Row) error
	GetTable(name string) (engine.TableView, error)
	SelectFiltered(name string, pred engine.Predicate) ([]record.Row, error)
	UpdateRows(name string, assigns []engine.Assignment, pred engine.Predicate) (int64, error)
	DeleteRows(name string, pred engine.Predicate) (int64, error)
}

var _ tableStore = (*engine.Store)(nil)

// Executor runs statements against one Store. It is the single lock around
// that Store: statements from any number of goroutines run one at a time.
type Executor struct {
	mu     sync.Mutex
	store  tableStore
	logger *slog.Logger
	stmts  *stmtcache.Cache
}

type Option func(*Executor)

// WithStatementCache keeps up to size parsed statements. size <= 0 disables it.
func WithStatementCache(size int) Option {
	return func(e *Executor) { e.stmts = stmtcache.New(size) }
}

// NewExecutor binds an executor to store. A nil logger means slog.Default().
func NewExecutor(store *engine.Store, logger *slog.Logger, opts ...Option) *Executor {
	return newExecutor(store, logger, opts...)
}

func newExecutor(store tableStore, logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{store: store, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecSQL is the top-level entry: SQL string -> Result.
// Only the first statement of sql is executed.
func (e *Executor) ExecSQL(sql string) (*Result, error) {
	st, ok := e.stmts.Get(sql)
	if !ok {
		var err error
		if st, err = parser.ParseStatement(sql); err != nil {
			return nil, err
		}
		e.stmts.Put(sql, st)
	}
	return e.exec(st)
}

// CacheStats reports statement cache hits and misses.
func (e *Executor) CacheStats() (hits, misses uint64) {
	return e.stmts.Stats()
}

// Exec runs an already parsed statement.
func (e *Executor) Exec(stmt sqlparser.Statement) (*Result, error) {
	return e.exec(parser.Statement{AST: stmt})
}

func (e *Executor) exec(st parser.Statement) (*Result, error) {
	plan, err := planner.Build(st)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Debug("executor: run plan", "plan", fmt.Sprintf("%T", plan))
	return e.execPlan(plan)
}

// Tables lists the table names of the store.
func (e *Executor) Tables() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ListTables()
}

func (e *Executor) execPlan(p planner.Plan) (*Result, error) {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.DropTablePlan:
		return e.execDropTable(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SeqScanPlan:
		return e.execSeqScan(plan)
	case *planner.UpdatePlan:
		return e.execUpdate(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)
	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", p)
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (*Result, error) {
	if p.IfNotExists {
		if _, err := e.store.Schema(p.TableName); err == nil {
			return &Result{Message: fmt.Sprintf("Table '%s' already exists", p.TableName)}, nil
		}
	}
	if replaced := e.store.CreateTable(p.TableName, p.Schema); replaced {
		e.logger.Warn("executor: existing table replaced, its rows are gone", "table", p.TableName)
	}
	return &Result{Message: fmt.Sprintf("Table '%s' created", p.TableName)}, nil
}

func (e *Executor) execDropTable(p *planner.DropTablePlan) (*Result, error) {
	if err := e.store.DropTable(p.TableName); err != nil {
		if p.IfExists {
			return &Result{Message: fmt.Sprintf("Table '%s' does not exist", p.TableName)}, nil
		}
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Table '%s' dropped", p.TableName)}, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (*Result, error) {
	rows := p.Rows
	if len(p.Columns) > 0 {
		schema, err := e.store.Schema(p.TableName)
		if err != nil {
			return nil, err
		}
		rows, err = reorderInsertRows(schema, p.Columns, p.Rows)
		if err != nil {
			return nil, err
		}
	}

	if err := e.store.InsertRows(p.TableName, rows); err != nil {
		return nil, err
	}
	return &Result{Message: "Row inserted", AffectedRows: int64(len(rows))}, nil
}

func (e *Executor) execSeqScan(p *planner.SeqScanPlan) (*Result, error) {
	if p.Where == nil {
		tbl, err := e.store.GetTable(p.TableName)
		if err != nil {
			return nil, err
		}
		return &Result{
			Table:        tbl.Name,
			Columns:      tbl.Columns,
			Rows:         tbl.Rows,
			AffectedRows: int64(len(tbl.Rows)),
		}, nil
	}

	schema, err := e.store.Schema(p.TableName)
	if err != nil {
		return nil, err
	}
	rows, err := e.store.SelectFiltered(p.TableName, predicate.Compile(p.Where, schema))
	if err != nil {
		return nil, err
	}
	return &Result{
		Table:        p.TableName,
		Columns:      schema.Names(),
		Rows:         rows,
		Filtered:     true,
		AffectedRows: int64(len(rows)),
	}, nil
}

func (e *Executor) execUpdate(p *planner.UpdatePlan) (*Result, error) {
	schema, err := e.store.Schema(p.TableName)
	if err != nil {
		return nil, err
	}

	assigns := make([]engine.Assignment, 0, len(p.Assigns))
	for _, a := range p.Assigns {
		pos := schema.Index(a.Column)
		if pos < 0 {
			return nil, fmt.Errorf("%w: %s in UPDATE of %s", engine.ErrUnknownColumn, a.Column, p.TableName)
		}
		assigns = append(assigns, engine.Assignment{Index: pos, Value: a.Value})
	}

	n, err := e.store.UpdateRows(p.TableName, assigns, predicate.Compile(p.Where, schema))
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("%d rows updated", n), AffectedRows: n}, nil
}

func (e *Executor) execDelete(p *planner.DeletePlan) (*Result, error) {
	schema, err := e.store.Schema(p.TableName)
	if err != nil {
		return nil, err
	}

	n, err := e.store.DeleteRows(p.TableName, predicate.Compile(p.Where, schema))
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("%d rows deleted", n), AffectedRows: n}, nil
}

// reorderInsertRows moves values given for an explicit column list into
// schema order. The list must name every column exactly once.
func reorderInsertRows(schema record.Schema, cols []string, rows []record.Row) ([]record.Row, error) {
	if len(cols) != schema.NumCols() {
		return nil, fmt.Errorf("%w: column list has %d names, table has %d columns",
			engine.ErrSchemaMismatch, len(cols), schema.NumCols())
	}

	pos := make([]int, len(cols))
	seen := make(map[int]bool, len(cols))
	for i, c := range cols {
		idx := schema.Index(c)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s in INSERT", engine.ErrUnknownColumn, c)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: column %s listed twice", engine.ErrSchemaMismatch, c)
		}
		seen[idx] = true
		pos[i] = idx
	}

	out := make([]record.Row, 0, len(rows))
	for _, r := range rows {
		if len(r) != len(cols) {
			return nil, fmt.Errorf("%w: %d values for %d listed columns",
				engine.ErrSchemaMismatch, len(r), len(cols))
		}
		ordered := make(record.Row, len(r))
		for i, v := range r {
			ordered[pos[i]] = v
		}
		out = append(out, ordered)
	}
	return out, nil
}
