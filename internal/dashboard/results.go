package dashboard

import "github.com/leapstack-labs/dashsql/pkg/core"

// Outcome is implemented by every view result.
type Outcome interface {
	OK() bool
	// Failure returns the error message of a failed result.
	Failure() string
}

// Markers reported on otherwise successful results.
const (
	MessageNoLotColumn = "NO_LOT_COLUMN"
	ErrorNoDefectCol   = "NO_DEFECT_COL"
	ErrorNoParams      = "NO_PARAMS"
)

// Production unit labels.
const (
	UnitCount   = "개"
	UnitCountEn = "ea"
	UnitKg      = "kg"
)

// SummaryData is today's headline metrics. Unbound metrics are nil.
type SummaryData struct {
	ProductionToday *float64 `json:"productionToday" yaml:"productionToday"`
	EquipmentRate   *float64 `json:"equipmentRate" yaml:"equipmentRate"`
	QualityRate     *float64 `json:"qualityRate" yaml:"qualityRate"`
	EnergyToday     *float64 `json:"energyToday" yaml:"energyToday"`
}

// SummaryResult is the single-day summary view.
type SummaryResult struct {
	Success    bool         `json:"success" yaml:"success"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	Data       *SummaryData `json:"data" yaml:"data"`
	FromDB     bool         `json:"fromDb" yaml:"fromDb"`
	Tables     []string     `json:"tables" yaml:"tables"`
	UsedTables []string     `json:"usedTables" yaml:"usedTables"`
}

// OK implements Outcome.
func (r SummaryResult) OK() bool { return r.Success }

// Failure implements Outcome.
func (r SummaryResult) Failure() string { return r.Error }

// CalendarResult is the monthly heatmap view.
type CalendarResult struct {
	Success          bool               `json:"success" yaml:"success"`
	Error            string             `json:"error,omitempty" yaml:"error,omitempty"`
	Year             int                `json:"year" yaml:"year"`
	Month            int                `json:"month" yaml:"month"`
	LastDay          int                `json:"lastDay,omitempty" yaml:"lastDay,omitempty"`
	Days             []core.CalendarDay `json:"days" yaml:"days"`
	ProductionUnit   string             `json:"productionUnit" yaml:"productionUnit"`
	ProductionUnitEn string             `json:"productionUnitEn" yaml:"productionUnitEn"`
}

// OK implements Outcome.
func (r CalendarResult) OK() bool { return r.Success }

// Failure implements Outcome.
func (r CalendarResult) Failure() string { return r.Error }

// LotStatusResult is the per-lot view.
type LotStatusResult struct {
	Success   bool              `json:"success" yaml:"success"`
	Error     string            `json:"error,omitempty" yaml:"error,omitempty"`
	Message   string            `json:"message,omitempty" yaml:"message,omitempty"`
	Lots      []core.LotSummary `json:"lots" yaml:"lots"`
	TotalLots int               `json:"totalLots" yaml:"totalLots"`
}

// OK implements Outcome.
func (r LotStatusResult) OK() bool { return r.Success }

// Failure implements Outcome.
func (r LotStatusResult) Failure() string { return r.Error }

// AlertsResult is the statistical alerts view.
type AlertsResult struct {
	Success bool         `json:"success" yaml:"success"`
	Error   string       `json:"error,omitempty" yaml:"error,omitempty"`
	Alerts  []core.Alert `json:"alerts" yaml:"alerts"`
}

// OK implements Outcome.
func (r AlertsResult) OK() bool { return r.Success }

// Failure implements Outcome.
func (r AlertsResult) Failure() string { return r.Error }

// RealtimeResult is the latest sensor snapshot.
type RealtimeResult struct {
	Success bool          `json:"success" yaml:"success"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
	Sensors []core.Sensor `json:"sensors" yaml:"sensors"`
}

// OK implements Outcome.
func (r RealtimeResult) OK() bool { return r.Success }

// Failure implements Outcome.
func (r RealtimeResult) Failure() string { return r.Error }

// IntervalsResult is the defect rate by parameter interval view.
type IntervalsResult struct {
	Success   bool                  `json:"success" yaml:"success"`
	Error     string                `json:"error,omitempty" yaml:"error,omitempty"`
	DefectCol string                `json:"defectCol,omitempty" yaml:"defectCol,omitempty"`
	Intervals []core.ParamIntervals `json:"intervals" yaml:"intervals"`
}

// OK implements Outcome.
func (r IntervalsResult) OK() bool { return r.Success }

// Failure implements Outcome.
func (r IntervalsResult) Failure() string { return r.Error }

// AnalyticsResult is the correlation view.
type AnalyticsResult struct {
	Success     bool             `json:"success" yaml:"success"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
	Correlation core.Correlation `json:"correlation" yaml:"correlation"`
}

// OK implements Outcome.
func (r AnalyticsResult) OK() bool { return r.Success }

// Failure implements Outcome.
func (r AnalyticsResult) Failure() string { return r.Error }

// TablesResult lists the tables of the configured schema.
type TablesResult struct {
	Success bool     `json:"success" yaml:"success"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
	Tables  []string `json:"tables" yaml:"tables"`
}

// OK implements Outcome.
func (r TablesResult) OK() bool { return r.Success }

// Failure implements Outcome.
func (r TablesResult) Failure() string { return r.Error }
