package planner

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/memsql/internal/record"
	"github.com/tuannm99/memsql/internal/sql/literal"
	"github.com/tuannm99/memsql/internal/sql/parser"
)

// Build is BuildPlan for a statement from parser.ParseStatement, carrying
// the flags the tree leaves out.
func Build(st parser.Statement) (Plan, error) {
	p, err := BuildPlan(st.AST)
	if err != nil {
		return nil, err
	}
	if ct, ok := p.(*CreateTablePlan); ok {
		ct.IfNotExists = st.IfNotExists
	}
	return p, nil
}

// BuildPlan builds a plan from a parsed statement. It needs no catalog:
// table and column names are resolved by the executor against the store.
func BuildPlan(stmt sqlparser.Statement) (Plan, error) {
	switch s := stmt.(type) {
	case *sqlparser.DDL:
		return buildDDLPlan(s)
	case *sqlparser.Insert:
		return buildInsertPlan(s)
	case *sqlparser.Select:
		return buildSelectPlan(s)
	case *sqlparser.Update:
		return buildUpdatePlan(s)
	case *sqlparser.Delete:
		return buildDeletePlan(s)
	default:
		return nil, ErrUnsupportedStatement
	}
}

func buildDDLPlan(s *sqlparser.DDL) (Plan, error) {
	switch s.Action {
	case sqlparser.CreateStr:
		return buildCreateTablePlan(s)
	case sqlparser.DropStr:
		name := s.Table.Name.String()
		if name == "" {
			return nil, ErrUnsupportedStatement
		}
		return &DropTablePlan{TableName: name, IfExists: s.IfExists}, nil
	default:
		return nil, ErrUnsupportedStatement
	}
}

func buildCreateTablePlan(s *sqlparser.DDL) (Plan, error) {
	// the grammar stores the created table in NewName; older trees used Table
	tn := s.NewName
	if tn.IsEmpty() {
		tn = s.Table
	}
	name := tn.Name.String()
	if name == "" {
		return nil, ErrUnsupportedStatement
	}
	if s.TableSpec == nil || len(s.TableSpec.Columns) == 0 {
		return nil, unsupported(fmt.Sprintf("CREATE TABLE %s: missing or unreadable column definitions", name))
	}

	cols := make([]record.Column, 0, len(s.TableSpec.Columns))
	for _, c := range s.TableSpec.Columns {
		cols = append(cols, record.Column{
			Name: c.Name.String(),
			Type: strings.ToUpper(c.Type.Type),
		})
	}
	return &CreateTablePlan{
		TableName: name,
		Schema:    record.Schema{Cols: cols},
	}, nil
}

func buildInsertPlan(s *sqlparser.Insert) (Plan, error) {
	if s.Action != sqlparser.InsertStr {
		return nil, ErrUnsupportedStatement
	}
	values, ok := s.Rows.(sqlparser.Values)
	if !ok {
		// INSERT ... SELECT
		return nil, ErrUnsupportedStatement
	}

	var cols []string
	for _, c := range s.Columns {
		cols = append(cols, c.String())
	}

	rows := make([]record.Row, 0, len(values))
	for _, tuple := range values {
		row := make(record.Row, 0, len(tuple))
		for _, expr := range tuple {
			row = append(row, literal.Value(expr))
		}
		rows = append(rows, row)
	}

	return &InsertPlan{
		TableName: s.Table.Name.String(),
		Columns:   cols,
		Rows:      rows,
	}, nil
}

func buildSelectPlan(s *sqlparser.Select) (Plan, error) {
	if !isStarOnly(s.SelectExprs) {
		return nil, errOnlySelectStar
	}
	if len(s.GroupBy) > 0 || s.Having != nil || len(s.OrderBy) > 0 || s.Limit != nil {
		return nil, ErrUnsupportedStatement
	}

	name, err := singleTable(s.From)
	if err != nil {
		return nil, err
	}

	p := &SeqScanPlan{TableName: name}
	if s.Where != nil {
		p.Where = s.Where.Expr
	}
	return p, nil
}

func buildUpdatePlan(s *sqlparser.Update) (Plan, error) {
	if s.Where == nil {
		return nil, missingFilter("UPDATE")
	}
	if len(s.OrderBy) > 0 || s.Limit != nil {
		return nil, ErrUnsupportedStatement
	}

	name, err := singleTable(s.TableExprs)
	if err != nil {
		return nil, err
	}

	assigns := make([]Assignment, 0, len(s.Exprs))
	for _, ue := range s.Exprs {
		if !literal.Is(ue.Expr) {
			return nil, unsupported(fmt.Sprintf("UPDATE %s: only literal values can be assigned to %s",
				name, ue.Name.Name.String()))
		}
		assigns = append(assigns, Assignment{
			Column: ue.Name.Name.String(),
			Value:  literal.Value(ue.Expr),
		})
	}

	return &UpdatePlan{
		TableName: name,
		Assigns:   assigns,
		Where:     s.Where.Expr,
	}, nil
}

func buildDeletePlan(s *sqlparser.Delete) (Plan, error) {
	if s.Where == nil {
		return nil, missingFilter("DELETE")
	}
	if len(s.Targets) > 0 || len(s.OrderBy) > 0 || s.Limit != nil {
		return nil, ErrUnsupportedStatement
	}

	name, err := singleTable(s.TableExprs)
	if err != nil {
		return nil, err
	}
	return &DeletePlan{TableName: name, Where: s.Where.Expr}, nil
}

func isStarOnly(exprs sqlparser.SelectExprs) bool {
	if len(exprs) != 1 {
		return false
	}
	_, ok := exprs[0].(*sqlparser.StarExpr)
	return ok
}

// singleTable extracts the only plain table of a FROM list. Joins, subqueries
// and multi-table lists are rejected.
func singleTable(from sqlparser.TableExprs) (string, error) {
	if len(from) != 1 {
		return "", ErrUnsupportedStatement
	}
	ate, ok := from[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", ErrUnsupportedStatement
	}
	tn, ok := ate.Expr.(sqlparser.TableName)
	if !ok || tn.Name.String() == "" {
		return "", ErrUnsupportedStatement
	}
	return tn.Name.String(), nil
}
