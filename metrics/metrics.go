// Package metrics holds the prometheus collectors for live and smoke test runs.
package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/livetest/types"
)

const (
	MetricsNamespace = "livetest"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	casesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cases_total",
		Help:      "Count of executed live test cases by verdict",
	}, []string{
		"run_id",
		"verdict",
	})

	caseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "case_duration_seconds",
		Help:      "Duration of live test cases",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{
		"verdict",
	})

	runResult = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_result",
		Help:      "Result of the last run, 1 for passed and 0 for failed",
	}, []string{
		"run_id",
		"mode",
	})

	smokeUnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "smoke_units_total",
		Help:      "Count of smoke tested packages by result",
	}, []string{
		"result",
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

// RecordCase records a finished live test case.
func RecordCase(runID string, verdict types.Verdict, duration time.Duration) {
	if Debug {
		log.Debug("metric inc",
			"m", "cases_total",
			"run_id", runID,
			"verdict", verdict,
		)
	}
	casesTotal.WithLabelValues(runID, string(verdict)).Inc()
	caseDuration.WithLabelValues(string(verdict)).Observe(duration.Seconds())
}

// RecordRunResult records the aggregate result of a run. mode is "live" or "smoke".
func RecordRunResult(runID string, mode string, passed bool) {
	value := 0.0
	if passed {
		value = 1
	}
	runResult.WithLabelValues(runID, mode).Set(value)
}

// RecordSmokeUnit records the result of smoke testing one package.
func RecordSmokeUnit(passed bool) {
	result := "passed"
	if !passed {
		result = "failed"
	}
	smokeUnitsTotal.WithLabelValues(result).Inc()
}
