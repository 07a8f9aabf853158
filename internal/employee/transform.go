package employee

import (
	"time"

	"empmaster/pkg/records"
)

// Transformer maps raw export rows to canonical records.
type Transformer struct {
	dict   Dictionary
	groups BusinessGroups
	now    func() time.Time
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) { t.now = now }
}

// WithDictionary replaces the default column dictionary.
func WithDictionary(d Dictionary) Option {
	return func(t *Transformer) { t.dict = d }
}

// NewTransformer builds a Transformer over the given business-group table.
func NewTransformer(groups BusinessGroups, opts ...Option) *Transformer {
	t := &Transformer{
		dict:   DefaultDictionary(),
		groups: groups,
		now:    time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Transform maps a single raw row using the clock's current date.
func (t *Transformer) Transform(raw records.Record) Record {
	return t.transformAt(raw, t.now())
}

// TransformAll maps rows one-to-one, reading the clock once so every row in
// a run shares the same "today".
func (t *Transformer) TransformAll(raws []records.Record) []Record {
	today := t.now()
	out := make([]Record, len(raws))
	for i, raw := range raws {
		out[i] = t.transformAt(raw, today)
	}
	return out
}

func (t *Transformer) transformAt(raw records.Record, today time.Time) Record {
	var rec Record

	for _, m := range t.dict {
		if v, ok := raw[m.Source]; ok {
			rec.Set(m.Target, FromRaw(v))
		}
	}

	for _, f := range dateFields {
		rec.Set(f, CoerceDate(rec.Get(f)))
	}
	// Exports without a position entry date fall back to the hire date.
	if rec.Get(FieldDOJ).IsNull() {
		rec.Set(FieldDOJ, CoerceDate(rec.Get(FieldCandidateHireDate)))
	}

	rec.Set(FieldEventDate, rec.Get(FieldEventDateRaw))
	rec.Set(FieldCandidateHired, CandidateHired(rec.Get(FieldDOJ)))
	rec.Set(FieldAge, YearsSince(rec.Get(FieldDOB), today))
	rec.Set(FieldCurrentExp, YearsSince(rec.Get(FieldDOJ), today))
	rec.Set(FieldAgeBins, AgeBin(rec.Get(FieldAge)))
	rec.Set(FieldAgeBinsEHS, AgeBinEHS(rec.Get(FieldAge)))
	rec.Set(FieldServiceBins, ServiceBin(rec.Get(FieldCurrentExp)))
	rec.Set(FieldHiringStatus, Str(HiringStatusRCM))
	rec.Set(FieldEmpCategory, EmpCategory(rec.Get(FieldContractType)))
	rec.Set(FieldInfancyExp, InfancyExp(rec.Get(FieldDOJ), rec.Get(FieldTerminationDate)))
	rec.Set(FieldInfancy, Infancy(rec.Get(FieldInfancyExp), rec.Get(FieldEmployeeGroup)))
	rec.Set(FieldBusinessGroup, t.groups.Lookup(rec.Get(FieldBusiness)))

	return rec
}
