package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "railsim_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
	exportRows    *prometheus.CounterVec

	reportTotal *prometheus.CounterVec

	storageErrors *prometheus.CounterVec
)

// Init registers process-wide metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		apiRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "api_requests_total",
				Help: "Total API requests by route and result",
			},
			[]string{"route", "result"},
		)
		apiLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "api_latency_seconds",
				Help:    "API latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dataset_export_total",
				Help: "Total dataset exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dataset_export_latency_seconds",
				Help:    "Dataset export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)
		exportRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dataset_export_rows_total",
				Help: "Total rows written by format",
			},
			[]string{"format"},
		)

		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_render_total",
				Help: "Total PDF reports rendered by kind and result",
			},
			[]string{"kind", "result"},
		)

		storageErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "storage_errors_total",
				Help: "Total run storage errors by operation",
			},
			[]string{"op"},
		)

		prometheus.MustRegister(
			apiRequests,
			apiLatency,
			exportTotal,
			exportLatency,
			exportRows,
			reportTotal,
			storageErrors,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveAPIRequest records API request duration and result.
func ObserveAPIRequest(route, result string, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if apiRequests != nil {
		apiRequests.WithLabelValues(route, result).Inc()
	}
	if apiLatency != nil {
		apiLatency.WithLabelValues(route).Observe(duration.Seconds())
	}
}

// ObserveExport records dataset export latency, result and row count.
func ObserveExport(format, result string, rows int, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
	if exportRows != nil && rows > 0 && result == resultSuccess {
		exportRows.WithLabelValues(format).Add(float64(rows))
	}
}

// IncReport increments the report counter.
func IncReport(kind, result string) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportTotal != nil {
		reportTotal.WithLabelValues(kind, result).Inc()
	}
}

// IncStorageError increments the storage error counter.
func IncStorageError(op string) {
	if op == "" {
		op = "unknown"
	}
	if storageErrors != nil {
		storageErrors.WithLabelValues(op).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
