package casegen

import "time"

// Coverage metric names.
const (
	MetricPage    = "page"
	MetricElement = "element"
	MetricLink    = "link"
	MetricForm    = "form"
	MetricFeature = "feature"
)

// CoverageStatus is a qualitative bucket for the aggregate score.
type CoverageStatus string

// Coverage statuses.
const (
	CoverageExcellent CoverageStatus = "excellent"
	CoverageGood      CoverageStatus = "good"
	CoverageModerate  CoverageStatus = "moderate"
	CoveragePoor      CoverageStatus = "poor"
)

// CoverageStatusFor buckets an aggregate percentage.
func CoverageStatusFor(avg float64) CoverageStatus {
	switch {
	case avg >= 80:
		return CoverageExcellent
	case avg >= 60:
		return CoverageGood
	case avg >= 40:
		return CoverageModerate
	}
	return CoveragePoor
}

// Metric is one coverage measurement.
type Metric struct {
	Name       string              `json:"name" yaml:"name"`
	Covered    int                 `json:"covered" yaml:"covered"`
	Total      int                 `json:"total" yaml:"total"`
	Percentage float64             `json:"percentage" yaml:"percentage"`
	Details    map[string][]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// CoverageReport scores a case set against the explored pages.
type CoverageReport struct {
	Metrics         []Metric       `json:"metrics" yaml:"metrics"`
	Average         float64        `json:"average" yaml:"average"`
	Status          CoverageStatus `json:"status" yaml:"status"`
	Recommendations []string       `json:"recommendations" yaml:"recommendations"`
	GeneratedAt     time.Time      `json:"generatedAt" yaml:"generatedAt"`
}

// Metric returns the named metric and whether it exists.
func (r *CoverageReport) Metric(name string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}
