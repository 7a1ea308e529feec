package executor

import (
	"encoding/json"
	"fmt"

	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/record"
)

// Result is the generic query result returned to the caller.
type Result struct {
	// Message is the status line of CREATE/INSERT/UPDATE/DELETE/DROP.
	Message string `json:"message,omitempty"`

	// For SELECT:
	Table    string       `json:"table,omitempty"`
	Columns  []string     `json:"columns,omitempty"`
	Rows     []record.Row `json:"rows,omitempty"`
	Filtered bool         `json:"filtered,omitempty"`

	// For DML, and the number of rows returned by SELECT.
	AffectedRows int64 `json:"affected_rows"`
}

// IsQuery reports whether the result carries rows rather than a status line.
func (r *Result) IsQuery() bool { return len(r.Columns) > 0 }

// Text renders the result for display: the status line for statements,
// the JSON encoding of the table for an unfiltered SELECT, and the JSON
// array of matching rows for a filtered one.
func (r *Result) Text() (string, error) {
	if !r.IsQuery() {
		return r.Message, nil
	}

	var v any
	if r.Filtered {
		rows := r.Rows
		if rows == nil {
			rows = []record.Row{}
		}
		v = rows
	} else {
		v = r.view()
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("executor: encode result: %w", err)
	}
	return string(b), nil
}

func (r *Result) view() engine.TableView {
	rows := r.Rows
	if rows == nil {
		rows = []record.Row{}
	}
	return engine.TableView{Name: r.Table, Columns: r.Columns, Rows: rows}
}
