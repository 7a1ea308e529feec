// Package predicate evaluates WHERE expressions against a single row.
//
// Exactly one shape is understood: a comparison between a column and a
// literal, in either order, with one of = != <> < <= > >= <=>. The column
// is resolved by name in the table schema. Every other shape, including
// AND/OR, IN, LIKE and column-to-column comparisons, evaluates to false
// instead of failing, so an unreadable filter simply matches no rows.
package predicate

import (
	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/record"
	"github.com/tuannm99/memsql/internal/sql/literal"
)

// comparison is a WHERE expression reduced to "row[col] op value".
type comparison struct {
	col   int
	op    string
	value record.Value
}

// Compile resolves expr against schema once and returns a predicate for the
// store. A shape it does not understand compiles to a predicate matching nothing.
func Compile(expr sqlparser.Expr, schema record.Schema) engine.Predicate {
	c, ok := compile(expr, schema)
	if !ok {
		return func(record.Row) bool { return false }
	}
	return c.match
}

// Eval reports whether row satisfies expr.
func Eval(expr sqlparser.Expr, schema record.Schema, row record.Row) bool {
	return Compile(expr, schema)(row)
}

func compile(expr sqlparser.Expr, schema record.Schema) (comparison, bool) {
	cmp, ok := unparen(expr).(*sqlparser.ComparisonExpr)
	if !ok || !supported(cmp.Operator) {
		return comparison{}, false
	}

	left, right, op := cmp.Left, cmp.Right, cmp.Operator
	if _, isCol := unparen(left).(*sqlparser.ColName); !isCol {
		left, right, op = right, left, mirror(op)
	}

	col, ok := unparen(left).(*sqlparser.ColName)
	if !ok || !literal.Is(right) {
		return comparison{}, false
	}

	idx := schema.Index(col.Name.String())
	if idx < 0 {
		return comparison{}, false
	}

	return comparison{col: idx, op: op, value: literal.Value(right)}, true
}

func (c comparison) match(row record.Row) bool {
	if c.col >= len(row) {
		return false
	}
	got := row[c.col]

	if c.op == sqlparser.NullSafeEqualStr {
		if got.IsNull() || c.value.IsNull() {
			return got.IsNull() && c.value.IsNull()
		}
	}

	n, ok := got.Compare(c.value)
	if !ok {
		return false
	}

	switch c.op {
	case sqlparser.EqualStr, sqlparser.NullSafeEqualStr:
		return n == 0
	case sqlparser.NotEqualStr:
		return n != 0
	case sqlparser.LessThanStr:
		return n < 0
	case sqlparser.LessEqualStr:
		return n <= 0
	case sqlparser.GreaterThanStr:
		return n > 0
	case sqlparser.GreaterEqualStr:
		return n >= 0
	}
	return false
}

func supported(op string) bool {
	switch op {
	case sqlparser.EqualStr, sqlparser.NotEqualStr, sqlparser.NullSafeEqualStr,
		sqlparser.LessThanStr, sqlparser.LessEqualStr,
		sqlparser.GreaterThanStr, sqlparser.GreaterEqualStr:
		return true
	}
	return false
}

// mirror flips an operator so "1 < a" can be read as "a > 1".
func mirror(op string) string {
	switch op {
	case sqlparser.LessThanStr:
		return sqlparser.GreaterThanStr
	case sqlparser.LessEqualStr:
		return sqlparser.GreaterEqualStr
	case sqlparser.GreaterThanStr:
		return sqlparser.LessThanStr
	case sqlparser.GreaterEqualStr:
		return sqlparser.LessEqualStr
	}
	return op
}

func unparen(e sqlparser.Expr) sqlparser.Expr {
	for {
		p, ok := e.(*sqlparser.ParenExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}
