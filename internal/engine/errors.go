package engine

import "errors"

var (
	ErrTableNotFound  = errors.New("table not found")
	ErrSchemaMismatch = errors.New("column count mismatch")
	ErrUnknownColumn  = errors.New("unknown column")
)
