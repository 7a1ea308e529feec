package repl

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tuannm99/memsql/internal/sql/executor"
)

// Mode selects how query results are printed.
type Mode int

const (
	// ModeJSON prints Result.Text(): the status line or the JSON encoding.
	ModeJSON Mode = iota
	// ModeTable prints query results as a bordered table.
	ModeTable
)

func (m Mode) String() string {
	if m == ModeTable {
		return "table"
	}
	return "json"
}

// RenderOptions tune ModeTable output.
type RenderOptions struct {
	// MaxWidth truncates cell text longer than this many runes (0 = off).
	MaxWidth int
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render writes res to w in the given mode.
func Render(w io.Writer, res *executor.Result, mode Mode, opts RenderOptions) error {
	if mode == ModeTable && res.IsQuery() {
		_, err := fmt.Fprintln(w, renderTable(res, opts))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
		return err
	}

	txt, err := res.Text()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, txt)
	return err
}

func renderTable(res *executor.Result, opts RenderOptions) string {
	rows := make([][]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i := range cells {
			s := "NULL"
			if i < len(r) {
				s = r[i].String()
			}
			cells[i] = truncate(s, opts.MaxWidth)
		}
		rows = append(rows, cells)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(res.Columns...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
