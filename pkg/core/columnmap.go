package core

import "strings"

// ColumnMap binds the semantic roles a dashboard needs to the physical
// columns of one table. An empty role field means the role is unresolved and
// the views depending on it degrade to empty results.
//
// A ColumnMap is never mutated after construction.
type ColumnMap struct {
	Table          string   `json:"table" yaml:"table"`
	DateCol        string   `json:"dateCol,omitempty" yaml:"dateCol,omitempty"`
	QuantityCol    string   `json:"quantityCol,omitempty" yaml:"quantityCol,omitempty"`
	PassRateCol    string   `json:"passRateCol,omitempty" yaml:"passRateCol,omitempty"`
	DefectCol      string   `json:"defectCol,omitempty" yaml:"defectCol,omitempty"`
	ConsumptionCol string   `json:"consumptionCol,omitempty" yaml:"consumptionCol,omitempty"`
	EfficiencyCol  string   `json:"efficiencyCol,omitempty" yaml:"efficiencyCol,omitempty"`
	LineCol        string   `json:"lineCol,omitempty" yaml:"lineCol,omitempty"`
	LotCol         string   `json:"lotCol,omitempty" yaml:"lotCol,omitempty"`
	ResultCol      string   `json:"resultCol,omitempty" yaml:"resultCol,omitempty"`
	NumericCols    []string `json:"numericCols" yaml:"numericCols"`
}

// HasDate reports whether a date column is bound.
func (m ColumnMap) HasDate() bool { return m.DateCol != "" }

// FirstNumeric returns at most n numeric columns in catalog order.
func (m ColumnMap) FirstNumeric(n int) []string {
	if len(m.NumericCols) <= n {
		return m.NumericCols
	}
	return m.NumericCols[:n]
}

// IsNumericType reports whether a raw catalog type name denotes a numeric
// column.
func IsNumericType(typ string) bool {
	t := strings.ToLower(typ)
	for _, frag := range []string{"int", "decimal", "float", "double"} {
		if strings.Contains(t, frag) {
			return true
		}
	}
	return false
}

// IsDateType reports whether a raw catalog type name denotes a date or time
// column.
func IsDateType(typ string) bool {
	t := strings.ToLower(typ)
	return strings.Contains(t, "date") || strings.Contains(t, "time") || t == "timestamp"
}
