package employee

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate_LayoutOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"03/01/2015", day(2015, time.March, 1), true},
		{"3/1/2015", day(2015, time.March, 1), true},
		// Day-first wins for dashed dates when both readings are valid.
		{"04-05-2020", day(2020, time.May, 4), true},
		{"25-12-2020", day(2020, time.December, 25), true},
		{"2020-12-25", day(2020, time.December, 25), true},
		{"12/25/2020 08:30:00", day(2020, time.December, 25), true},
		{"2020-12-25 23:59:59", day(2020, time.December, 25), true},
		// Month-first dashed dates only parse once day-first fails.
		{"01-15-1990", day(1990, time.January, 15), true},
		{"  2020-01-02  ", day(2020, time.January, 2), true},
		{"", time.Time{}, false},
		{"   ", time.Time{}, false},
		{"2020/12/25", time.Time{}, false},
		{"31-02-2020", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseDate(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && !DateOf(got).Equal(DateOf(tc.want)) {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, got.Format(isoDate), tc.want.Format(isoDate))
		}
	}
}

func TestCoerceDate(t *testing.T) {
	t.Parallel()

	d := DateOf(day(2020, 1, 2))
	if got := CoerceDate(d); !got.Equal(d) {
		t.Fatalf("CoerceDate(date) = %v, want %v", got, d)
	}
	if got := CoerceDate(Str("2020-01-02")); !got.Equal(d) {
		t.Fatalf("CoerceDate(string) = %v, want %v", got, d)
	}
	for _, v := range []Value{Null(), Int(20200102), Str("nope"), Tri(true)} {
		if got := CoerceDate(v); !got.IsNull() {
			t.Fatalf("CoerceDate(%v) = %v, want null", v, got)
		}
	}
}

func TestNormalizeValue(t *testing.T) {
	t.Parallel()

	dec := decimal.RequireFromString("12.50")
	cases := []struct {
		name string
		in   Value
		want any
	}{
		{"null", Null(), nil},
		{"plain string", Str("Finance"), "Finance"},
		{"string keeps padding", Str(" Finance "), " Finance "},
		{"empty marker", Str("  "), nil},
		{"nan marker", Str("NaN"), nil},
		{"nat marker", Str("NaT"), nil},
		{"residual date string", Str("03/01/2015"), "2015-03-01"},
		{"residual datetime string", Str("2015-03-01 10:00:00"), "2015-03-01"},
		{"unparseable stays", Str("2015/03/01"), "2015/03/01"},
		{"int", Int(42), int64(42)},
		{"date", DateOf(day(2024, time.June, 1)), "2024-06-01"},
		{"tristate true", Tri(true), true},
		{"tristate false", Tri(false), false},
	}
	for _, tc := range cases {
		got := NormalizeValue(tc.in)
		if got != tc.want {
			t.Fatalf("%s: NormalizeValue(%v) = %#v, want %#v", tc.name, tc.in, got, tc.want)
		}
	}

	got, ok := NormalizeValue(Dec(dec)).(decimal.Decimal)
	if !ok || !got.Equal(dec) {
		t.Fatalf("NormalizeValue(decimal) = %#v, want %s", got, dec)
	}
}

func TestNormalizeAll_ArityAndOrder(t *testing.T) {
	t.Parallel()

	var rec Record
	rec.Set(FieldUserID, Str("E1"))
	rec.Set(FieldDOB, DateOf(day(1990, 1, 15)))
	rec.Set(FieldBusinessGroup, Str("KOTA"))

	rows := NormalizeAll([]Record{rec})
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	row := rows[0]
	if len(row) != NumFields {
		t.Fatalf("len(row) = %d, want %d", len(row), NumFields)
	}
	if row[FieldUserID] != "E1" || row[FieldDOB] != "1990-01-15" || row[FieldBusinessGroup] != "KOTA" {
		t.Fatalf("row = %#v", row)
	}
	if row[FieldFullName] != nil {
		t.Fatalf("FullName = %#v, want nil", row[FieldFullName])
	}
}

func TestColumns_MatchFieldOrder(t *testing.T) {
	t.Parallel()

	cols := Columns()
	if len(cols) != NumFields {
		t.Fatalf("len(Columns) = %d, want %d", len(cols), NumFields)
	}
	if cols[0] != "UserID" || cols[len(cols)-1] != "BusinessGroup" {
		t.Fatalf("columns = %v", cols)
	}
	seen := map[string]bool{}
	for i, c := range cols {
		if seen[c] {
			t.Fatalf("duplicate column %q", c)
		}
		seen[c] = true
		f, ok := LookupField(c)
		if !ok || int(f) != i {
			t.Fatalf("LookupField(%q) = %d,%v want %d", c, f, ok, i)
		}
	}
}

func TestFromRaw(t *testing.T) {
	t.Parallel()

	if got := FromRaw(""); !got.IsNull() {
		t.Fatalf("FromRaw(\"\") = %v, want null", got)
	}
	if got := FromRaw(" x "); !got.Equal(Str(" x ")) {
		t.Fatalf("FromRaw(\" x \") = %v", got)
	}
	if got := FromRaw(7); !got.Equal(Int(7)) {
		t.Fatalf("FromRaw(7) = %v", got)
	}
	if got := FromRaw(1.5); !got.Equal(Dec(decimal.NewFromFloat(1.5))) {
		t.Fatalf("FromRaw(1.5) = %v", got)
	}
	if got := FromRaw(true); !got.Equal(Tri(true)) {
		t.Fatalf("FromRaw(true) = %v", got)
	}
}
