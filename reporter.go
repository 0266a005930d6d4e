package unit

import (
	"github.com/unitlab/unit/metrics"
	"github.com/unitlab/unit/types"
)

// MetricsReporter is responsible for publishing finished session results.
type MetricsReporter interface {
	ReportResults(result *types.SessionResult)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the session results to the metrics system.
func (r *DefaultMetricsReporter) ReportResults(result *types.SessionResult) {
	metrics.RecordSession(
		result.RunID,
		string(result.Status),
		result.Stats,
		result.Duration,
	)
}
