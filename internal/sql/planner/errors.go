package planner

import "errors"

var (
	ErrUnsupportedStatement = errors.New("Unsupported query")
	ErrMissingFilter        = errors.New("No WHERE condition specified")
)

// stmtError carries the exact user-facing message while still matching its
// category with errors.Is.
type stmtError struct {
	kind error
	msg  string
}

func (e *stmtError) Error() string { return e.msg }
func (e *stmtError) Unwrap() error { return e.kind }

func unsupported(msg string) error {
	return &stmtError{kind: ErrUnsupportedStatement, msg: msg}
}

func missingFilter(stmt string) error {
	return &stmtError{kind: ErrMissingFilter, msg: "No WHERE condition specified for " + stmt}
}

var errOnlySelectStar = unsupported("Only SELECT * is supported")
