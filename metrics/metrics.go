package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unitlab/unit/types"
)

const (
	MetricsNamespace = "unit"
)

var (
	Debug                bool = true
	validResults              = []types.Status{types.StatusPass, types.StatusFail}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	usageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "usage_errors_total",
		Help:      "Count of engine API misuses detected while running",
	}, []string{
		"kind",
	})

	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "checks_total",
		Help:      "Count of evaluated checks",
	}, []string{
		"kind",
		"result",
	})

	casesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cases_total",
		Help:      "Count of executed test cases",
	}, []string{
		"run_id",
		"suite",
		"name",
		"result",
	})

	suitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suites_total",
		Help:      "Count of finished suites",
	}, []string{
		"run_id",
		"suite",
		"result",
	})

	sessionResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "session_results",
		Help:      "Result of test sessions",
	}, []string{
		"run_id",
		"result",
	})

	sessionCasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "session_cases_total",
		Help:      "Total number of cases executed per session",
	}, []string{
		"run_id",
	})

	sessionCasesPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "session_cases_passed",
		Help:      "Number of passed cases per session",
	}, []string{
		"run_id",
	})

	sessionCasesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "session_cases_failed",
		Help:      "Number of failed cases per session",
	}, []string{
		"run_id",
	})

	sessionDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "session_duration",
		Help:      "Duration of test sessions",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordUsageError(kind string) {
	if Debug {
		log.Debug("metric inc",
			"m", "usage_errors_total",
			"kind", kind,
		)
	}
	usageErrorsTotal.WithLabelValues(kind).Inc()
}

func RecordCheck(kind string, passed bool) {
	result := string(types.StatusFromBool(passed))
	if Debug {
		log.Debug("metric inc",
			"m", "checks_total",
			"kind", kind,
			"result", result,
		)
	}
	checksTotal.WithLabelValues(kind, result).Inc()
}

func RecordCase(runID string, suite string, name string, result string) {
	if !isValidResult(types.Status(result)) {
		log.Error("RecordCase - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "cases_total",
			"run_id", runID,
			"suite", suite,
			"case", name,
			"result", result)
	}
	casesTotal.WithLabelValues(runID, suite, name, result).Inc()
}

func RecordSuite(runID string, suite string, result string, stats types.Stats) {
	if !isValidResult(types.Status(result)) {
		log.Error("RecordSuite - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "suites_total",
			"run_id", runID,
			"suite", suite,
			"result", result,
			"cases", stats.Total,
			"failed", stats.Failed)
	}
	suitesTotal.WithLabelValues(runID, suite, result).Inc()
}

func RecordSession(
	runID string,
	result string,
	stats types.Stats,
	duration time.Duration,
) {
	sessionResults.WithLabelValues(runID, result).Set(1)
	sessionCasesTotal.WithLabelValues(runID).Add(float64(stats.Total))
	sessionCasesPassed.WithLabelValues(runID).Add(float64(stats.Passed))
	sessionCasesFailed.WithLabelValues(runID).Add(float64(stats.Failed))
	sessionDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.Status) bool {
	return slices.Contains(validResults, result)
}
