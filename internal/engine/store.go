package engine

import (
	"fmt"
	"sort"

	"github.com/tuannm99/memsql/internal/record"
)

// Store owns every table of a session.
//
// A Store is not safe for concurrent use. Callers sharing one Store between
// goroutines must serialize access with a single lock (executor.Executor does).
type Store struct {
	tables map[string]*Table
}

func NewStore() *Store {
	return &Store{tables: make(map[string]*Table)}
}

func (s *Store) table(name string) (*Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// CreateTable registers an empty table. An existing table with the same name
// is replaced and its rows are lost; replaced reports whether that happened.
func (s *Store) CreateTable(name string, schema record.Schema) (replaced bool) {
	_, replaced = s.tables[name]
	s.tables[name] = newTable(name, schema)
	return replaced
}

func (s *Store) DropTable(name string) error {
	if _, err := s.table(name); err != nil {
		return err
	}
	delete(s.tables, name)
	return nil
}

// ListTables returns the table names in sorted order.
func (s *Store) ListTables() []string {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Store) Schema(name string) (record.Schema, error) {
	t, err := s.table(name)
	if err != nil {
		return record.Schema{}, err
	}
	return t.Schema, nil
}

func (s *Store) InsertRow(name string, row record.Row) error {
	return s.InsertRows(name, []record.Row{row})
}

// InsertRows appends rows in order. Every row is validated first, so either
// all rows are appended or none are.
func (s *Store) InsertRows(name string, rows []record.Row) error {
	t, err := s.table(name)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := t.checkArity(r); err != nil {
			return err
		}
	}
	for _, r := range rows {
		t.rows = append(t.rows, r.Clone())
	}
	return nil
}

// GetTable returns a copy of the table's schema and rows.
func (s *Store) GetTable(name string) (TableView, error) {
	t, err := s.table(name)
	if err != nil {
		return TableView{}, err
	}
	return t.view(), nil
}

// SelectFiltered returns copies of the rows matching pred, in table order.
func (s *Store) SelectFiltered(name string, pred Predicate) ([]record.Row, error) {
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	return t.filter(pred), nil
}

// UpdateRows applies assigns in place to every row matching pred and returns
// how many rows changed. Assignments are checked before any row is touched.
func (s *Store) UpdateRows(name string, assigns []Assignment, pred Predicate) (int64, error) {
	t, err := s.table(name)
	if err != nil {
		return 0, err
	}
	return t.update(assigns, pred)
}

// DeleteRows removes every row matching pred, keeping the order of the rest.
func (s *Store) DeleteRows(name string, pred Predicate) (int64, error) {
	t, err := s.table(name)
	if err != nil {
		return 0, err
	}
	return t.delete(pred), nil
}
