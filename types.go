// Package memsql is the top-level facade for the in-memory SQL table store.
package memsql

import (
	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/record"
	"github.com/tuannm99/memsql/internal/sql/executor"
)

type (
	Store  = engine.Store
	Result = executor.Result
	Value  = record.Value
	Row    = record.Row
)

var (
	ErrTableNotFound  = engine.ErrTableNotFound
	ErrSchemaMismatch = engine.ErrSchemaMismatch
	ErrUnknownColumn  = engine.ErrUnknownColumn
)
