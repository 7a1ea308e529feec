// Package literal turns parsed literal expressions into record values.
//
// Rule: a quoted string becomes TEXT, an integer literal becomes INTEGER
// (FLOAT when it does not fit in int64), a decimal or exponent literal
// becomes FLOAT, and a unary minus on a numeric literal negates it.
// Anything else, NULL included, becomes NULL.
package literal

import (
	"math"
	"strconv"

	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/memsql/internal/record"
)

// Value coerces expr to a record value following the package rule.
func Value(expr sqlparser.Expr) record.Value {
	v, _ := coerce(expr)
	return v
}

// Is reports whether expr is a literal the package rule understands,
// as opposed to something that merely coerces to NULL.
func Is(expr sqlparser.Expr) bool {
	_, ok := coerce(expr)
	return ok
}

func coerce(expr sqlparser.Expr) (record.Value, bool) {
	switch e := expr.(type) {
	case *sqlparser.SQLVal:
		return sqlVal(e)
	case *sqlparser.NullVal:
		return record.Null(), true
	case *sqlparser.ParenExpr:
		return coerce(e.Expr)
	case *sqlparser.UnaryExpr:
		v, ok := coerce(e.Expr)
		if !ok {
			return record.Null(), false
		}
		switch e.Operator {
		case sqlparser.UPlusStr:
			if v.Kind() == record.KindInt || v.Kind() == record.KindFloat {
				return v, true
			}
		case sqlparser.UMinusStr:
			return negate(v)
		}
		return record.Null(), false
	default:
		return record.Null(), false
	}
}

func sqlVal(v *sqlparser.SQLVal) (record.Value, bool) {
	raw := string(v.Val)
	switch v.Type {
	case sqlparser.StrVal:
		return record.Text(raw), true
	case sqlparser.IntVal:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return record.Int(i), true
		}
		return parseFloat(raw)
	case sqlparser.FloatVal:
		return parseFloat(raw)
	default:
		// hex, bit and bind-variable literals have no matching kind
		return record.Null(), false
	}
}

func parseFloat(raw string) (record.Value, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return record.Null(), false
	}
	return record.Float(f), true
}

func negate(v record.Value) (record.Value, bool) {
	switch v.Kind() {
	case record.KindInt:
		if v.AsInt() == math.MinInt64 {
			return record.Float(-float64(v.AsInt())), true
		}
		return record.Int(-v.AsInt()), true
	case record.KindFloat:
		return record.Float(-v.AsFloat()), true
	default:
		return record.Null(), false
	}
}
