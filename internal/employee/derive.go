package employee

import (
	"strconv"
	"strings"
	"time"
)

const (
	// HiringStatusRCM is stamped on every record.
	HiringStatusRCM = "RCM"

	CategoryOfficer    = "Officer"
	CategoryNonOfficer = "Non-Officer"

	InfancyTrainee = "Trainee Attrition"
	InfancyGeneral = "Infancy Attrition"

	// infancyWindowYears is the tenure-at-termination below which a
	// separation counts as infancy attrition.
	infancyWindowYears = 2
)

// CompletedYears returns the whole years between from and today, minus one
// when today's month/day precedes from's month/day.
func CompletedYears(from, today time.Time) int64 {
	years := int64(today.Year() - from.Year())
	if today.Month() < from.Month() || (today.Month() == from.Month() && today.Day() < from.Day()) {
		years--
	}
	return years
}

// YearsSince is CompletedYears lifted over Values: Null in, Null out.
func YearsSince(date Value, today time.Time) Value {
	t, ok := date.AsDate()
	if !ok {
		return Null()
	}
	return Int(CompletedYears(t, today))
}

// CandidateHired is the string "TRUE" when doj is set, else "FALSE".
func CandidateHired(doj Value) Value {
	if doj.IsNull() {
		return Str("FALSE")
	}
	return Str("TRUE")
}

// rangeBin labels n with the half-open range [k*width, (k+1)*width) for k in
// [0, buckets). Values outside every range are Null.
func rangeBin(v Value, width, buckets int64) Value {
	n, ok := v.AsInt()
	if !ok || n < 0 || n >= width*buckets {
		return Null()
	}
	lo := n / width * width
	return Str(strconv.FormatInt(lo, 10) + "-" + strconv.FormatInt(lo+width, 10))
}

// AgeBin buckets an age into decades "0-10" … "90-100".
func AgeBin(age Value) Value { return rangeBin(age, 10, 10) }

// ServiceBin buckets tenure into half-decades "0-5" … "45-50".
func ServiceBin(exp Value) Value { return rangeBin(exp, 5, 10) }

// AgeBinEHS is the coarse three-way age band used by EHS reporting.
func AgeBinEHS(age Value) Value {
	n, ok := age.AsInt()
	switch {
	case !ok:
		return Null()
	case n < 30:
		return Str("<30")
	case n <= 50:
		return Str("30-50")
	default:
		return Str(">50")
	}
}

// folded is the trimmed, lower-cased text of v. Null folds to "nan" to match
// how the export tooling stringifies missing cells.
func folded(v Value) string {
	if v.IsNull() {
		return "nan"
	}
	return strings.ToLower(strings.TrimSpace(v.Text()))
}

// EmpCategory is Officer for an "officer" contract type, Non-Officer for
// anything else including Null.
func EmpCategory(contractType Value) Value {
	if folded(contractType) == "officer" {
		return Str(CategoryOfficer)
	}
	return Str(CategoryNonOfficer)
}

// InfancyExp is the calendar-year difference between termination and
// joining. Unlike Age it ignores month and day.
func InfancyExp(doj, termination Value) Value {
	j, ok1 := doj.AsDate()
	t, ok2 := termination.AsDate()
	if !ok1 || !ok2 {
		return Null()
	}
	return Int(int64(t.Year() - j.Year()))
}

// Infancy classifies an early separation by employee group.
func Infancy(infancyExp, employeeGroup Value) Value {
	exp, ok := infancyExp.AsInt()
	if !ok || employeeGroup.IsNull() {
		return Null()
	}
	if exp >= infancyWindowYears {
		return Null()
	}
	if folded(employeeGroup) == "trainee" {
		return Str(InfancyTrainee)
	}
	return Str(InfancyGeneral)
}
