package core

import "strings"

// Severity classifies how far a reading strays from its recent baseline.
type Severity string

// Severity levels for alerts.
const (
	// SeverityWarning marks a reading at least two standard deviations away.
	SeverityWarning Severity = "warning"
	// SeverityCritical marks a reading at least three standard deviations away.
	SeverityCritical Severity = "critical"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityWarning and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "warning":
		return SeverityWarning, true
	case "critical":
		return SeverityCritical, true
	default:
		return SeverityWarning, false
	}
}
