package employee

// ColumnMapping routes one source header to one canonical field.
type ColumnMapping struct {
	Source string
	Target Field
}

// Dictionary is an ordered list of mappings. When several entries target the
// same field, the last one whose source column is present wins.
type Dictionary []ColumnMapping

// DefaultDictionary is the mapping for the employee master report export.
//
// "Department" feeds Department only; Dep_name has no source column and
// stays Null.
func DefaultDictionary() Dictionary {
	return Dictionary{
		{"User/Employee ID", FieldUserID},
		{"Business", FieldBusiness},
		{"Full Name", FieldFullName},
		{"Event Date", FieldEventDateRaw},
		{"Contract Type", FieldContractType},
		{"Employee Group", FieldEmployeeGroup},
		{"Separation Reason", FieldSeparationReason},
		{"Employee Sub Group", FieldESG},
		{"ESG Band", FieldESGBand},
		{"ESG Level", FieldESGLevel},
		{"Event Reason", FieldEventReason},
		{"Gender", FieldGender},
		{"Employment Details Termination Type", FieldTerminationType},
		{"Employment Details Hire Date", FieldCandidateHireDate},
		{"Employee Status", FieldStatus},
		{"Last Modified On", FieldLastModified},
		{"Unit", FieldDivision},
		{"Department", FieldDepartment},
		{"Date Of Birth", FieldDOB},
		{"Position Entry Date", FieldDOJ},
		{"Employment Details Termination Date", FieldTerminationDate},
		{"Retirement Date", FieldRetirementDate},
		{"Personal Area", FieldPersonalArea},
		{"Personal Sub Area", FieldPersonalSubArea},
		{"Designation", FieldDesignation},
	}
}

// Sources returns the distinct source headers in dictionary order.
func (d Dictionary) Sources() []string {
	seen := make(map[string]struct{}, len(d))
	out := make([]string, 0, len(d))
	for _, m := range d {
		if _, ok := seen[m.Source]; ok {
			continue
		}
		seen[m.Source] = struct{}{}
		out = append(out, m.Source)
	}
	return out
}
