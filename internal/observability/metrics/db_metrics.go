package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stored_runs",
			Help: "Simulation runs in the dataset store",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM sim_runs")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stored_failure_events",
			Help: "Failure events in the dataset store",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM sim_failure_events")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("event=metrics_query_failed err=%v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
