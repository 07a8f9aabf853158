package employee

import (
	"fmt"
	"strings"
)

// nullMarkers are textual spellings of a missing value.
var nullMarkers = map[string]struct{}{
	"":    {},
	"nan": {},
	"nat": {},
}

// NormalizeValue converts a canonical cell to a driver-safe scalar:
//
//	Null     -> nil
//	String   -> nil for null markers, "YYYY-MM-DD" when it reads as a date,
//	            otherwise the string unchanged
//	Int      -> int64
//	Decimal  -> decimal.Decimal (a driver.Valuer)
//	Date     -> "YYYY-MM-DD"
//	Tristate -> bool
func NormalizeValue(v Value) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindString:
		trimmed := strings.TrimSpace(v.s)
		if _, ok := nullMarkers[strings.ToLower(trimmed)]; ok {
			return nil
		}
		if t, ok := ParseDate(trimmed); ok {
			return t.Format(isoDate)
		}
		return v.s
	case KindInt:
		return v.i
	case KindDecimal:
		return v.d
	case KindDate:
		return v.t.Format(isoDate)
	case KindTristate:
		return v.b
	}
	panic(fmt.Sprintf("employee: unhandled value kind %s", v.Kind()))
}

// NormalizeRecord converts every cell of r in column order.
func NormalizeRecord(r *Record) []any {
	out := make([]any, numFields)
	for i := range r.vals {
		out[i] = NormalizeValue(r.vals[i])
	}
	return out
}

// NormalizeAll converts a batch of records into insert rows.
func NormalizeAll(recs []Record) [][]any {
	rows := make([][]any, len(recs))
	for i := range recs {
		rows[i] = NormalizeRecord(&recs[i])
	}
	return rows
}
