package engine

import (
	"fmt"

	"github.com/tuannm99/memsql/internal/record"
)

// Predicate reports whether a row takes part in a filtered operation.
type Predicate func(row record.Row) bool

// Assignment sets the column at Index to Value.
type Assignment struct {
	Index int
	Value record.Value
}

// Table is a named, schema-fixed collection of rows kept in insertion order.
type Table struct {
	Name   string
	Schema record.Schema
	rows   []record.Row
}

func newTable(name string, schema record.Schema) *Table {
	return &Table{Name: name, Schema: schema}
}

// TableView is a detached copy of a table, safe to hand out of the store.
type TableView struct {
	Name    string       `json:"name"`
	Columns []string     `json:"columns"`
	Rows    []record.Row `json:"rows"`
}

func (t *Table) NumRows() int { return len(t.rows) }

func (t *Table) checkArity(row record.Row) error {
	if len(row) != t.Schema.NumCols() {
		return fmt.Errorf("%w: table %s has %d columns, got %d values",
			ErrSchemaMismatch, t.Name, t.Schema.NumCols(), len(row))
	}
	return nil
}

func (t *Table) view() TableView {
	v := TableView{
		Name:    t.Name,
		Columns: t.Schema.Names(),
		Rows:    make([]record.Row, 0, len(t.rows)),
	}
	for _, r := range t.rows {
		v.Rows = append(v.Rows, r.Clone())
	}
	return v
}

func (t *Table) filter(pred Predicate) []record.Row {
	out := []record.Row{}
	for _, r := range t.rows {
		if pred(r) {
			// avoid slice aliasing
			out = append(out, r.Clone())
		}
	}
	return out
}

func (t *Table) update(assigns []Assignment, pred Predicate) (int64, error) {
	for _, a := range assigns {
		if a.Index < 0 || a.Index >= t.Schema.NumCols() {
			return 0, fmt.Errorf("%w: table %s has no column #%d", ErrUnknownColumn, t.Name, a.Index)
		}
	}

	var affected int64
	for _, r := range t.rows {
		if !pred(r) {
			continue
		}
		for _, a := range assigns {
			r[a.Index] = a.Value
		}
		affected++
	}
	return affected, nil
}

func (t *Table) delete(pred Predicate) int64 {
	kept := t.rows[:0]
	var removed int64
	for _, r := range t.rows {
		if pred(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	// drop references held by the tail so removed rows can be collected
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = nil
	}
	t.rows = kept
	return removed
}
