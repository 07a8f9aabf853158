package employee

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// BusinessGroups maps an exact business-unit string to its reporting group.
// It is immutable once built.
type BusinessGroups struct {
	m map[string]string
}

var defaultBusinessGroups = map[string]string{
	"11000413-SBG":                        "BioSeed",
	"11000414-BRI":                        "BioSeed",
	"11000407-Chemicals":                  "Chemical",
	"11000409-Corporate":                  "Corporate",
	"11000417-Hydro Business":             "Corporate",
	"11000418-DCM Shriram Foundation":     "Corporate",
	"11000408-Fenesta":                    "Fenesta",
	"10004129-Fertiliser":                 "KOTA",
	"10004130-Plastics":                   "KOTA",
	"10004131-Power":                      "KOTA",
	"10004132-Common Kota":                "KOTA",
	"10004133-Cement":                     "KOTA",
	"11000416-Shriram Polytech":           "KOTA",
	"Shriram Farm Solutions":              "KOTA",
	"11000411-Hariyali":                   "KOTA",
	"11000419-Shriram AgSmart Limited":    "KOTA",
	"11000415-SGFL":                       "KOTA",
	"11000416-Shriram Axiall":             "KOTA",
	"11000410-DCM Shriram Ltd - Sugar":    "Sugar",
	"11000410-DSCL Sugar":                 "Sugar",
	"11000420-Shriram Bio Enchem Limited": "Sugar",
	"11000412-Shriram Farm Solutions":     "SFS",
}

// NewBusinessGroups copies m into a new lookup.
func NewBusinessGroups(m map[string]string) BusinessGroups {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return BusinessGroups{m: cp}
}

// DefaultBusinessGroups returns the built-in business-unit table.
func DefaultBusinessGroups() BusinessGroups {
	return NewBusinessGroups(defaultBusinessGroups)
}

// LoadBusinessGroups decodes a YAML mapping of business unit to group.
func LoadBusinessGroups(r io.Reader) (BusinessGroups, error) {
	var m map[string]string
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if err == io.EOF {
			return NewBusinessGroups(nil), nil
		}
		return BusinessGroups{}, fmt.Errorf("decode business groups: %w", err)
	}
	return NewBusinessGroups(m), nil
}

// LoadBusinessGroupsFile reads a YAML business-group table from path.
func LoadBusinessGroupsFile(path string) (BusinessGroups, error) {
	f, err := os.Open(path)
	if err != nil {
		return BusinessGroups{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return LoadBusinessGroups(f)
}

// Lookup returns the group for business, or Null on a miss.
func (g BusinessGroups) Lookup(business Value) Value {
	if business.IsNull() {
		return Null()
	}
	if grp, ok := g.m[business.Text()]; ok {
		return Str(grp)
	}
	return Null()
}

// Len returns the number of business units in the table.
func (g BusinessGroups) Len() int { return len(g.m) }
