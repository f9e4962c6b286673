package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles fleet simulation metrics.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	WagonsSimulated prometheus.Counter
	WagonDuration   prometheus.Histogram
	FailuresTotal   *prometheus.CounterVec
	FramesTotal     prometheus.Counter
	FleetSize       prometheus.Gauge
}

// New constructs metrics and registers them with reg.
// A nil reg registers with the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railsim_fleet_runs_total",
				Help: "Total fleet runs by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railsim_fleet_run_duration_seconds",
			Help:    "Fleet run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		WagonsSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railsim_wagons_simulated_total",
			Help: "Total simulated wagons",
		}),
		WagonDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railsim_wagon_simulation_seconds",
			Help:    "Per-wagon simulation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		FailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railsim_component_failures_total",
				Help: "Total simulated component failures by component",
			},
			[]string{"component"},
		),
		FramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railsim_sensor_frames_total",
			Help: "Total synthesized sensor frames",
		}),
		FleetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railsim_fleet_size",
			Help: "Wagons in the last completed fleet run",
		}),
	}
	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.WagonsSimulated,
		m.WagonDuration,
		m.FailuresTotal,
		m.FramesTotal,
		m.FleetSize,
	)
	return m
}
