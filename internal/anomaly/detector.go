// Package anomaly flags readings that stray from their recent baseline.
package anomaly

import (
	"math"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// Thresholds in standard deviations.
const (
	WarningSigma  = 2.0
	CriticalSigma = 3.0
	LimitSigma    = 2.0

	// MinSamples is the smallest window statistics are computed over.
	MinSamples = 2
)

// Stats summarizes a sample window.
type Stats struct {
	Mean   float64
	StdDev float64
}

// Compute returns the arithmetic mean and population standard deviation of
// samples. A zero standard deviation is replaced with 1.
func Compute(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{StdDev: 1}
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(len(samples))

	var sq float64
	for _, v := range samples {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(samples)))
	if std == 0 {
		std = 1
	}
	return Stats{Mean: mean, StdDev: std}
}

// Detect evaluates latest against the samples window. It reports false when
// there are fewer than MinSamples samples or |deviation| is below WarningSigma.
func Detect(samples []float64, latest float64) (core.Alert, bool) {
	if len(samples) < MinSamples {
		return core.Alert{}, false
	}
	s := Compute(samples)
	dev := (latest - s.Mean) / s.StdDev
	if math.Abs(dev) < WarningSigma {
		return core.Alert{}, false
	}

	severity := core.SeverityWarning
	if math.Abs(dev) >= CriticalSigma {
		severity = core.SeverityCritical
	}
	return core.Alert{
		CurrentValue: latest,
		Mean:         s.Mean,
		UpperLimit:   s.Mean + LimitSigma*s.StdDev,
		LowerLimit:   s.Mean - LimitSigma*s.StdDev,
		Deviation:    dev,
		Severity:     severity,
	}, true
}

// DetectColumn runs Detect for one column whose values are ordered newest
// first; the newest value is the reading under test.
func DetectColumn(column string, newestFirst []float64) (core.Alert, bool) {
	if len(newestFirst) == 0 {
		return core.Alert{}, false
	}
	alert, ok := Detect(newestFirst, newestFirst[0])
	if !ok {
		return core.Alert{}, false
	}
	alert.Column = column
	return alert, true
}
