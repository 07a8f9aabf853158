package employee

import (
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// DateLayouts are tried in order; the first layout that parses wins.
//
// Single-digit month/day verbs accept both "3" and "03". The trailing
// month-first dashed layout catches exports such as "01-15-1990" that fail
// the day-first reading.
var DateLayouts = []string{
	"1/2/2006",
	"2-1-2006",
	"2006-1-2",
	"1/2/2006 15:04:05",
	"2006-1-2 15:04:05",
	"1-2-2006",
}

// ParseDate parses s with DateLayouts. Empty or unparseable input reports
// false; it is never an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CoerceDate turns v into a Date or Null. Dates pass through; strings are
// parsed; anything else is Null.
func CoerceDate(v Value) Value {
	switch v.Kind() {
	case KindDate:
		return v
	case KindString:
		if t, ok := ParseDate(v.s); ok {
			return DateOf(t)
		}
	}
	return Null()
}
