package record

import "strings"

// Column is a table column. Type is the declared SQL type, kept for display only.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type Schema struct {
	Cols []Column `json:"columns"`
}

func NewSchema(names ...string) Schema {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n}
	}
	return Schema{Cols: cols}
}

func (s Schema) NumCols() int { return len(s.Cols) }

// Names returns the column names in display order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
// Column names are matched case-insensitively, like SQL identifiers.
func (s Schema) Index(name string) int {
	for i := range s.Cols {
		if strings.EqualFold(s.Cols[i].Name, name) {
			return i
		}
	}
	return -1
}
