package employee

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the scalar held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindDecimal
	KindDate
	KindTristate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindTristate:
		return "tristate"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a canonical cell. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	i    int64
	d    decimal.Decimal
	t    time.Time
	b    bool
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Dec wraps a decimal.
func Dec(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }

// DateOf wraps the calendar date of t; the time of day is dropped.
func DateOf(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Tri wraps a known boolean. Unknown is Null.
func Tri(b bool) Value { return Value{kind: KindTristate, b: b} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload when v is a String.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsInt returns the integer payload when v is an Int.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsDecimal returns the decimal payload when v is a Decimal.
func (v Value) AsDecimal() (decimal.Decimal, bool) { return v.d, v.kind == KindDecimal }

// AsDate returns the date payload when v is a Date.
func (v Value) AsDate() (time.Time, bool) { return v.t, v.kind == KindDate }

// AsBool returns the boolean payload when v is a Tristate.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindTristate }

// Text renders the value the way it would read in the source file. Null
// renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return v.d.String()
	case KindDate:
		return v.t.Format(isoDate)
	case KindTristate:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	}
	return ""
}

// String implements fmt.Stringer for logs and test failures.
func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.Text()
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindDecimal:
		return v.d.Equal(o.d)
	case KindDate:
		return v.t.Equal(o.t)
	case KindTristate:
		return v.b == o.b
	}
	return true
}

// FromRaw converts a parsed cell into a Value. Blank strings are Null.
func FromRaw(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case string:
		if strings.TrimSpace(t) == "" {
			return Null()
		}
		return Str(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Dec(decimal.NewFromFloat(t))
	case decimal.Decimal:
		return Dec(t)
	case time.Time:
		return DateOf(t)
	case bool:
		return Tri(t)
	case Value:
		return t
	}
	return Str(fmt.Sprint(x))
}
