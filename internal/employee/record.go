package employee

// Record is one canonical row. Every field is always present; fields that
// were never set are Null.
type Record struct {
	vals [numFields]Value
}

// Get returns the value of f.
func (r *Record) Get(f Field) Value {
	if f < 0 || f >= numFields {
		return Null()
	}
	return r.vals[f]
}

// Set stores v in f. Out-of-range fields are ignored.
func (r *Record) Set(f Field, v Value) {
	if f < 0 || f >= numFields {
		return
	}
	r.vals[f] = v
}

// Values returns a copy of the cells in column order.
func (r *Record) Values() []Value {
	out := make([]Value, numFields)
	copy(out, r.vals[:])
	return out
}

// NullCounts returns, per field in column order, how many records hold Null.
func NullCounts(recs []Record) []int {
	counts := make([]int, numFields)
	for i := range recs {
		for f := range recs[i].vals {
			if recs[i].vals[f].IsNull() {
				counts[f]++
			}
		}
	}
	return counts
}
