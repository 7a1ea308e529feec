// Package repl is the line-oriented shell shared by the embedded and the
// remote command-line clients.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tuannm99/memsql/internal/sql/executor"
	"github.com/tuannm99/memsql/internal/sql/parser"
)

// ExecFunc runs one SQL statement.
type ExecFunc func(sql string) (*executor.Result, error)

// LineReader is the subset of *readline.Instance the shell needs.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	SaveHistory(content string) error
	Close() error
}

var _ LineReader = (*readline.Instance)(nil)

type Config struct {
	Prompt string
	// Multiline buffers input until a ';' outside quotes. Otherwise every
	// line is one statement.
	Multiline bool
	Mode      Mode
	Render    RenderOptions
	History   *History
	// Tables backs \dt. Nil when the backend cannot list tables.
	Tables func() []string
}

const contPrompt = "...> "

// Shell reads statements from a LineReader and prints their results.
type Shell struct {
	cfg  Config
	in   LineReader
	out  io.Writer
	errw io.Writer
	exec ExecFunc

	buf strings.Builder
}

func NewShell(cfg Config, in LineReader, out, errw io.Writer, exec ExecFunc) *Shell {
	if cfg.Prompt == "" {
		cfg.Prompt = "SQL> "
	}
	if cfg.History == nil {
		cfg.History = NewHistory("", 0)
	}
	for _, line := range cfg.History.Lines() {
		_ = in.SaveHistory(line)
	}
	in.SetPrompt(cfg.Prompt)
	return &Shell{cfg: cfg, in: in, out: out, errw: errw, exec: exec}
}

// Run loops until exit, \q or end of input. Statement errors are printed
// and the loop goes on.
func (s *Shell) Run() error {
	for {
		line, err := s.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl+C drops the pending statement
			s.reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			// an unterminated last statement still runs
			if s.buf.Len() > 0 {
				stmt := s.buf.String()
				s.reset()
				s.run(stmt)
			}
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if s.buf.Len() == 0 && isMetaCommand(line) {
			if quit := s.meta(line); quit {
				return nil
			}
			continue
		}

		if s.buf.Len() > 0 {
			s.buf.WriteByte(' ')
		}
		s.buf.WriteString(line)

		if s.cfg.Multiline && !parser.StatementComplete(s.buf.String()) {
			s.in.SetPrompt(contPrompt)
			continue
		}

		stmt := s.buf.String()
		s.reset()
		s.run(stmt)
	}
}

func (s *Shell) run(stmt string) {
	if err := s.cfg.History.Append(stmt); err != nil {
		fmt.Fprintf(s.errw, "history: %v\n", err)
	}
	_ = s.in.SaveHistory(parser.CompactOneLine(stmt))

	res, err := s.exec(stmt)
	if err != nil {
		fmt.Fprintf(s.errw, "Error: %v\n", err)
		return
	}
	if err := Render(s.out, res, s.cfg.Mode, s.cfg.Render); err != nil {
		fmt.Fprintf(s.errw, "Error: %v\n", err)
	}
}

func (s *Shell) reset() {
	s.buf.Reset()
	s.in.SetPrompt(s.cfg.Prompt)
}

func isMetaCommand(line string) bool {
	return strings.HasPrefix(line, "\\") ||
		strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit")
}

const helpText = `meta commands:
  \q | quit | exit       quit
  \dt                    list tables
  \table                 print query results as a table
  \json                  print query results as JSON
  \history               print history
  \help                  show help`

// meta runs a backslash command and reports whether the shell should stop.
func (s *Shell) meta(line string) bool {
	switch strings.ToLower(line) {
	case "\\q", "quit", "exit":
		return true
	case "\\help", "\\?":
		fmt.Fprintln(s.out, helpText)
		if s.cfg.Multiline {
			fmt.Fprintln(s.out, "\nend statements with ';', input continues until then")
		}
	case "\\history":
		s.cfg.History.Print(s.out, 50)
	case "\\table":
		s.cfg.Mode = ModeTable
		fmt.Fprintln(s.out, "output mode: table")
	case "\\json":
		s.cfg.Mode = ModeJSON
		fmt.Fprintln(s.out, "output mode: json")
	case "\\dt":
		if s.cfg.Tables == nil {
			fmt.Fprintln(s.errw, "\\dt is not available here")
			break
		}
		names := s.cfg.Tables()
		if len(names) == 0 {
			fmt.Fprintln(s.out, "(no tables)")
		}
		for _, n := range names {
			fmt.Fprintln(s.out, n)
		}
	default:
		fmt.Fprintf(s.errw, "unknown command: %s\n", line)
	}
	return false
}

// ScanReader feeds the shell from a plain reader, for piped input.
type ScanReader struct {
	sc *bufio.Scanner
}

func NewScanReader(r io.Reader) *ScanReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8<<20)
	return &ScanReader{sc: sc}
}

func (r *ScanReader) Readline() (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *ScanReader) SetPrompt(string)         {}
func (r *ScanReader) SaveHistory(string) error { return nil }
func (r *ScanReader) Close() error             { return nil }
