package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "FLOAT"
	case KindText:
		return "TEXT"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a single typed cell. The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func Null() Value                { return Value{} }
func Int(v int64) Value          { return Value{kind: KindInt, i: v} }
func Float(v float64) Value      { return Value{kind: KindFloat, f: v} }
func Text(v string) Value        { return Value{kind: KindText, s: v} }
func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsText() string   { return v.s }

func (v Value) isNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) number() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Equal reports whether both values have the same kind and content.
// NULL equals NULL here; SQL three-valued logic lives in the predicate layer.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	}
	return false
}

// Compare orders two values. ok is false when they are not comparable:
// either side is NULL, or a TEXT is paired with a number.
// INTEGER and FLOAT compare numerically with each other.
func (v Value) Compare(o Value) (cmp int, ok bool) {
	switch {
	case v.kind == KindText && o.kind == KindText:
		return strings.Compare(v.s, o.s), true
	case v.kind == KindInt && o.kind == KindInt:
		switch {
		case v.i < o.i:
			return -1, true
		case v.i > o.i:
			return 1, true
		}
		return 0, true
	case v.isNumeric() && o.isNumeric():
		a, b := v.number(), o.number()
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		case a == b:
			return 0, true
		}
		// NaN
		return 0, false
	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindText:
		return v.s
	default:
		return "NULL"
	}
}

// formatFloat always keeps a '.' or an exponent so a FLOAT never reads back as an INTEGER.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("record: cannot encode float %v", v.f)
		}
		return []byte(formatFloat(v.f)), nil
	case KindText:
		return json.Marshal(v.s)
	default:
		return nil, fmt.Errorf("record: unknown value kind %d", v.kind)
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("record: empty value")
	}

	switch b[0] {
	case 'n':
		if string(b) != "null" {
			return fmt.Errorf("record: bad value %q", b)
		}
		*v = Null()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("record: bad text value: %w", err)
		}
		*v = Text(s)
		return nil
	}

	raw := string(b)
	if !strings.ContainsAny(raw, ".eE") {
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("record: bad integer value %q: %w", raw, err)
		}
		*v = Int(i)
		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("record: bad float value %q: %w", raw, err)
	}
	*v = Float(f)
	return nil
}

// Row is an ordered sequence of values, one per table column.
type Row []Value

// Clone returns a copy that shares nothing with r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	cp := make(Row, len(r))
	copy(cp, r)
	return cp
}

func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
