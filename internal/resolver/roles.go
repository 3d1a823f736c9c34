package resolver

// Role is a semantic meaning a dashboard view needs from a column.
type Role string

// Roles bound by the resolver.
const (
	RoleDate        Role = "date"
	RoleQuantity    Role = "quantity"
	RolePassRate    Role = "passRate"
	RoleDefect      Role = "defect"
	RoleConsumption Role = "consumption"
	RoleEfficiency  Role = "efficiency"
	RoleLine        Role = "line"
	RoleLot         Role = "lot"
	RoleResult      Role = "result"
)

// Fallback selects what happens when no candidate name matches.
type Fallback int

const (
	// FallbackNone leaves the role unset.
	FallbackNone Fallback = iota
	// FallbackDateType binds the first column with a date/time type.
	FallbackDateType
	// FallbackNumeric binds the first numeric column whose name does not look
	// like a rate or quality measure.
	FallbackNumeric
)

// String returns the fallback's name.
func (f Fallback) String() string {
	switch f {
	case FallbackDateType:
		return "date-type"
	case FallbackNumeric:
		return "numeric"
	default:
		return "none"
	}
}

// Rule is one row of the role table: candidate name fragments in priority
// order plus the structural fallback.
type Rule struct {
	Role       Role
	Candidates []string
	Fallback   Fallback
}

// DefaultRules is the role table used for manufacturing process tables.
// Candidate order is significant: earlier candidates win.
var DefaultRules = []Rule{
	{
		Role:       RoleDate,
		Candidates: []string{"timestamp", "date", "created_at", "recorded_at", "dt", "time", "날짜"},
		Fallback:   FallbackDateType,
	},
	{
		Role:       RoleQuantity,
		Candidates: []string{"quantity", "amount", "count", "qty", "output", "생산", "수량"},
		Fallback:   FallbackNumeric,
	},
	{
		Role:       RolePassRate,
		Candidates: []string{"pass_rate", "pass", "quality", "ok_rate", "양품률", "품질"},
	},
	{
		Role:       RoleDefect,
		Candidates: []string{"quality_defect", "defect", "defect_rate", "fail", "ng", "불량"},
	},
	{
		Role:       RoleConsumption,
		Candidates: []string{"consumption", "usage", "kwh", "energy", "power", "에너지", "소비"},
	},
	{
		Role:       RoleEfficiency,
		Candidates: []string{"efficiency", "uptime", "oee", "rate", "효율", "가동률"},
	},
	{
		Role:       RoleLine,
		Candidates: []string{"line", "line_id", "line_name", "라인", "공정"},
	},
	{
		Role:       RoleLot,
		Candidates: []string{"lot_id", "lot", "batch", "lot_no", "batch_id", "LOT", "id"},
	},
	{
		// Result and defect flags are interchangeable in this domain.
		Role: RoleResult,
		Candidates: []string{
			"quality_defect", "y_defect", "result", "pass_fail", "judge", "judgment",
			"판정", "합불", "ok_ng", "pass_fail_result", "quality_result", "judgement",
		},
	},
}

// quantityExcluded lists name fragments that disqualify a numeric column from
// the quantity fallback.
var quantityExcluded = []string{"pass", "rate", "quality"}
