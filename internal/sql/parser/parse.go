// Package parser is the boundary to the SQL grammar. It turns query text into
// a sqlparser statement tree and nothing else: no catalog lookups, no
// validation of table or column names.
package parser

import (
	"errors"
	"io"
	"strings"

	"github.com/xwb1989/sqlparser"
)

var (
	ErrParseFailure = errors.New("parse failure")
	ErrInvalidQuery = errors.New("Invalid query")
)

// ParseError wraps the grammar's error. Its message is the grammar's message
// unchanged, so it can be shown to the user as is.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string        { return e.Err.Error() }
func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParseFailure }

// Statement is the first statement of a query plus the parts of it the
// grammar accepts but leaves out of the tree.
type Statement struct {
	AST sqlparser.Statement
	// IfNotExists is set for CREATE TABLE IF NOT EXISTS.
	IfNotExists bool
}

// Parse returns the first statement in sql. Any statements after the first
// are not parsed. Input without a statement fails with ErrInvalidQuery.
func Parse(sql string) (sqlparser.Statement, error) {
	st, err := ParseStatement(sql)
	if err != nil {
		return nil, err
	}
	return st.AST, nil
}

// ParseStatement is Parse keeping the flags the tree cannot carry.
func ParseStatement(sql string) (Statement, error) {
	if blank(sql) {
		return Statement{}, ErrInvalidQuery
	}

	stmt, err := sqlparser.ParseNext(sqlparser.NewStringTokenizer(sql))
	if err == io.EOF {
		return Statement{}, ErrInvalidQuery
	}
	if err != nil {
		return Statement{}, &ParseError{Err: err}
	}
	if stmt == nil {
		return Statement{}, ErrInvalidQuery
	}
	return Statement{AST: stmt, IfNotExists: createIfNotExists(sql)}, nil
}

// blank reports whether sql holds nothing but comments, whitespace and ';'.
func blank(sql string) bool {
	tkn := sqlparser.NewStringTokenizer(sql)
	for {
		typ, _ := tkn.Scan()
		switch typ {
		case 0:
			return true
		case sqlparser.COMMENT, ';':
		default:
			return false
		}
	}
}

var ifNotExistsPrefix = []int{sqlparser.CREATE, sqlparser.TABLE, sqlparser.IF, sqlparser.NOT, sqlparser.EXISTS}

// createIfNotExists reads the leading keywords of sql, which the grammar
// reduces to a plain CREATE TABLE.
func createIfNotExists(sql string) bool {
	tkn := sqlparser.NewStringTokenizer(sql)
	for i := 0; i < len(ifNotExistsPrefix); {
		typ, _ := tkn.Scan()
		if typ == sqlparser.COMMENT {
			continue
		}
		if typ != ifNotExistsPrefix[i] {
			return false
		}
		i++
	}
	return true
}

// StatementComplete reports whether buf holds a ';' outside single quotes,
// i.e. a line-oriented reader has a full statement to run.
func StatementComplete(buf string) bool {
	inQuote := false
	escaped := false

	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

// CompactOneLine collapses newlines, tabs and runs of spaces so a statement
// can be stored as a single history line.
func CompactOneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
