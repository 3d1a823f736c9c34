package core

// DateRangeSet holds the calendar dates the dashboard filters on, formatted as
// YYYY-MM-DD in one fixed time zone. Weeks run Monday to Sunday.
type DateRangeSet struct {
	Today        string `json:"today"`
	WeekStart    string `json:"weekStart"`
	WeekEnd      string `json:"weekEnd"`
	FirstOfMonth string `json:"firstOfMonth"`
	LastOfMonth  string `json:"lastOfMonth"`
}

// PassFail values reported for a lot's latest result.
const (
	ResultPass = "pass"
	ResultFail = "fail"
)

// LotSummary is one aggregated row per distinct lot id.
type LotSummary struct {
	LotID          string             `json:"lotId" yaml:"lotId"`
	PassFailResult *string            `json:"passFailResult" yaml:"passFailResult"`
	RecordCount    int                `json:"recordCount" yaml:"recordCount"`
	LatestDate     *string            `json:"latestDate" yaml:"latestDate"`
	LithiumInput   *float64           `json:"lithiumInput" yaml:"lithiumInput"`
	AdditiveRatio  *float64           `json:"additiveRatio" yaml:"additiveRatio"`
	ProcessTime    *float64           `json:"processTime" yaml:"processTime"`
	Humidity       *float64           `json:"humidity" yaml:"humidity"`
	TankPressure   *float64           `json:"tankPressure" yaml:"tankPressure"`
	Params         map[string]float64 `json:"params" yaml:"params"`
}

// Alert reports a numeric column whose latest reading falls outside its
// control limits.
type Alert struct {
	Column       string   `json:"column" yaml:"column"`
	CurrentValue float64  `json:"currentValue" yaml:"currentValue"`
	Mean         float64  `json:"mean" yaml:"mean"`
	UpperLimit   float64  `json:"upperLimit" yaml:"upperLimit"`
	LowerLimit   float64  `json:"lowerLimit" yaml:"lowerLimit"`
	Deviation    float64  `json:"deviation" yaml:"deviation"`
	Severity     Severity `json:"severity" yaml:"severity"`
}

// Sensor is the latest value of one numeric column.
type Sensor struct {
	Name          string  `json:"name" yaml:"name"`
	CurrentValue  float64 `json:"currentValue" yaml:"currentValue"`
	Trend         string  `json:"trend" yaml:"trend"`
	ChangePercent float64 `json:"changePercent" yaml:"changePercent"`
	Unit          string  `json:"unit" yaml:"unit"`
}

// CalendarDay is one cell of the monthly heatmap.
type CalendarDay struct {
	Day        int     `json:"day" yaml:"day"`
	Production float64 `json:"production" yaml:"production"`
	DefectRate float64 `json:"defectRate" yaml:"defectRate"`
}

// IntervalBin is one equal-count bucket of a parameter's value range.
type IntervalBin struct {
	Label      string  `json:"label" yaml:"label"`
	Min        float64 `json:"min" yaml:"min"`
	Max        float64 `json:"max" yaml:"max"`
	DefectRate float64 `json:"defectRate" yaml:"defectRate"`
	Count      int     `json:"count" yaml:"count"`
}

// ParamIntervals is the defect rate of one parameter broken down by bins.
type ParamIntervals struct {
	ParamName         string        `json:"paramName" yaml:"paramName"`
	Bins              []IntervalBin `json:"bins" yaml:"bins"`
	AverageDefectRate float64       `json:"averageDefectRate" yaml:"averageDefectRate"`
}

// Correlation is a symmetric Pearson correlation matrix over Columns.
type Correlation struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Matrix  [][]float64 `json:"matrix" yaml:"matrix"`
}
