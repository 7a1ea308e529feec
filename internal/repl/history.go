package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tuannm99/memsql/internal/sql/parser"
)

// History keeps executed statements, one per line, in its own file so it
// survives readline's in-memory history.
type History struct {
	path  string
	max   int
	lines []string
}

// NewHistory returns a history backed by path. An empty path keeps the
// history in memory only. max <= 0 means unlimited.
func NewHistory(path string, max int) *History {
	return &History{path: path, max: max}
}

func (h *History) Load() error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		h.push(s)
	}
	return sc.Err()
}

func (h *History) Append(stmt string) error {
	stmt = parser.CompactOneLine(stmt)
	if stmt == "" {
		return nil
	}
	h.push(stmt)

	if h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = fmt.Fprintln(f, stmt)
	return err
}

func (h *History) Lines() []string { return h.lines }

// Print writes the last n entries, numbered. n <= 0 prints everything.
func (h *History) Print(w io.Writer, n int) {
	if n <= 0 || n > len(h.lines) {
		n = len(h.lines)
	}
	for i := len(h.lines) - n; i < len(h.lines); i++ {
		fmt.Fprintf(w, "%5d  %s\n", i+1, h.lines[i])
	}
}

func (h *History) push(s string) {
	h.lines = append(h.lines, s)
	if h.max > 0 && len(h.lines) > h.max {
		h.lines = h.lines[len(h.lines)-h.max:]
	}
}

// DefaultHistoryPath is ~/.memsql_history, or a relative file when the
// home directory is unknown.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".memsql_history"
	}
	return filepath.Join(home, ".memsql_history")
}
