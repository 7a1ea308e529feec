package planner

import (
	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/memsql/internal/record"
)

// Plan is the interface for executable plans.
type Plan interface {
	planNode()
}

// ----- Plan nodes -----

type CreateTablePlan struct {
	TableName string
	Schema    record.Schema
	// IfNotExists leaves an existing table untouched instead of replacing it.
	IfNotExists bool
}

func (*CreateTablePlan) planNode() {}

type DropTablePlan struct {
	TableName string
	IfExists  bool
}

func (*DropTablePlan) planNode() {}

type InsertPlan struct {
	TableName string
	// Columns is the optional column list; nil means positional values.
	Columns []string
	Rows    []record.Row
}

func (*InsertPlan) planNode() {}

// SeqScanPlan reads a whole table. A nil Where returns the table itself
// (name, columns, rows); otherwise only the matching rows.
type SeqScanPlan struct {
	TableName string
	Where     sqlparser.Expr
}

func (*SeqScanPlan) planNode() {}

type Assignment struct {
	Column string
	Value  record.Value
}

type UpdatePlan struct {
	TableName string
	Assigns   []Assignment
	Where     sqlparser.Expr // never nil
}

func (*UpdatePlan) planNode() {}

type DeletePlan struct {
	TableName string
	Where     sqlparser.Expr // never nil
}

func (*DeletePlan) planNode() {}
