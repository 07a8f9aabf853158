// Package employee holds the canonical employee-master schema and the logic
// that turns a raw export row into a canonical record: column mapping, date
// coercion, derived demographic and tenure fields, and the business-group
// lookup. It also owns the cell normalizer used right before a store write.
//
// Everything in this package is pure. "Today" is injected through the
// Transformer's clock so derivations are reproducible in tests.
package employee

// Field identifies one canonical column. Fields are ordered; the order is
// the column order of the destination table.
type Field int

const (
	FieldUserID Field = iota
	FieldBusiness
	FieldFullName
	FieldEventDateRaw
	FieldContractType
	FieldEmployeeGroup
	FieldSeparationReason
	FieldESG
	FieldESGBand
	FieldESGLevel
	FieldEventReason
	FieldGender
	FieldCandidateHired
	FieldTerminationType
	FieldCandidateHireDate
	FieldStatus
	FieldLastModified
	FieldDivision
	FieldDepName
	FieldDOJ
	FieldDOB
	FieldEventDate
	FieldTerminationDate
	FieldRetirementDate
	FieldAge
	FieldCurrentExp
	FieldAgeBins
	FieldAgeBinsEHS
	FieldServiceBins
	FieldInfancyExp
	FieldInfancy
	FieldEmpCategory
	FieldHiringStatus
	FieldDepartment
	FieldPersonalArea
	FieldPersonalSubArea
	FieldDesignation
	FieldBusinessGroup

	numFields
)

// NumFields is the arity of a canonical record.
const NumFields = int(numFields)

// ColumnType is the storage type class of a canonical column.
type ColumnType string

const (
	TypeText ColumnType = "text"
	TypeInt  ColumnType = "int"
	TypeDate ColumnType = "date"
)

type fieldDef struct {
	name string
	typ  ColumnType
}

var fieldDefs = [numFields]fieldDef{
	FieldUserID:            {"UserID", TypeText},
	FieldBusiness:          {"Business", TypeText},
	FieldFullName:          {"FullName", TypeText},
	FieldEventDateRaw:      {"Event Date", TypeDate},
	FieldContractType:      {"ContractType", TypeText},
	FieldEmployeeGroup:     {"EmployeeGroup", TypeText},
	FieldSeparationReason:  {"SeparationReason", TypeText},
	FieldESG:               {"ESG", TypeText},
	FieldESGBand:           {"ESGBand", TypeText},
	FieldESGLevel:          {"ESGLevel", TypeText},
	FieldEventReason:       {"EventReason", TypeText},
	FieldGender:            {"Gender", TypeText},
	FieldCandidateHired:    {"CandidateHired", TypeText},
	FieldTerminationType:   {"TerminationType", TypeText},
	FieldCandidateHireDate: {"Candidate Hire Date", TypeText},
	FieldStatus:            {"Status", TypeText},
	FieldLastModified:      {"LastModified", TypeDate},
	FieldDivision:          {"Division", TypeText},
	FieldDepName:           {"Dep_name", TypeText},
	FieldDOJ:               {"DOJ", TypeDate},
	FieldDOB:               {"DOB", TypeDate},
	FieldEventDate:         {"EventDate", TypeDate},
	FieldTerminationDate:   {"TerminationDate", TypeDate},
	FieldRetirementDate:    {"RetirementDate", TypeDate},
	FieldAge:               {"Age", TypeInt},
	FieldCurrentExp:        {"Current_exp", TypeInt},
	FieldAgeBins:           {"Age_Bins", TypeText},
	FieldAgeBinsEHS:        {"Age_Bins_EHS", TypeText},
	FieldServiceBins:       {"Service_Bins", TypeText},
	FieldInfancyExp:        {"Infancy_exp", TypeInt},
	FieldInfancy:           {"Infancy", TypeText},
	FieldEmpCategory:       {"Emp_Category", TypeText},
	FieldHiringStatus:      {"Hiring_Status", TypeText},
	FieldDepartment:        {"Department", TypeText},
	FieldPersonalArea:      {"Personal Area", TypeText},
	FieldPersonalSubArea:   {"Personal Sub Area", TypeText},
	FieldDesignation:       {"Designation", TypeText},
	FieldBusinessGroup:     {"BusinessGroup", TypeText},
}

// dateFields are parsed from free text during transformation.
var dateFields = []Field{
	FieldDOB,
	FieldDOJ,
	FieldEventDateRaw,
	FieldTerminationDate,
	FieldRetirementDate,
	FieldLastModified,
}

// Name returns the destination column name.
func (f Field) Name() string {
	if f < 0 || f >= numFields {
		return ""
	}
	return fieldDefs[f].name
}

// Type returns the storage type class of the column.
func (f Field) Type() ColumnType {
	if f < 0 || f >= numFields {
		return TypeText
	}
	return fieldDefs[f].typ
}

func (f Field) String() string { return f.Name() }

// Fields returns every canonical field in column order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Columns returns the destination column names in order.
func Columns() []string {
	out := make([]string, numFields)
	for i := range out {
		out[i] = fieldDefs[i].name
	}
	return out
}

// LookupField finds a field by its column name.
func LookupField(name string) (Field, bool) {
	for i := range fieldDefs {
		if fieldDefs[i].name == name {
			return Field(i), true
		}
	}
	return 0, false
}
