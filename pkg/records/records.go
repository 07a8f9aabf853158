// Package records defines the raw row type shared by parsers and the
// transformer. A Record maps a source column label to an untyped scalar:
// string, int64, decimal.Decimal, or nil/absent for an empty cell.
package records

// Record is one parsed source row keyed by header label.
type Record map[string]any

// Has reports whether the record carries a non-nil value for key.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}
