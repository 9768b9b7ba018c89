package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MigrationAttemptsTotal tracks startup migration attempts by outcome.
var MigrationAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "persons_api_migration_attempts_total",
		Help: "Total startup migration attempts by outcome",
	},
	[]string{"driver", "outcome"},
)

// MigrationState tracks the migration runner state (value 1 for current state, 0 otherwise).
var MigrationState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "persons_api_migration_state",
		Help: "Migration runner state (1 for current state, 0 otherwise)",
	},
	[]string{"driver", "state"},
)

// MigrationBackoffSeconds tracks the delays waited between migration attempts.
var MigrationBackoffSeconds = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "persons_api_migration_backoff_seconds",
		Help:    "Delay waited before retrying a failed migration",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
	},
	[]string{"driver"},
)

// MigrationDuration tracks the total time spent bringing the schema up to date.
var MigrationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "persons_api_migration_duration_seconds",
		Help:    "Time from first migration attempt to success or fatal failure",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"driver"},
)

// StoreOperationsTotal tracks person store operations by result.
var StoreOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "persons_api_store_operations_total",
		Help: "Total person store operations",
	},
	[]string{"driver", "operation", "result"},
)

// HTTPRequestsTotal tracks handled HTTP requests.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "persons_api_http_requests_total",
		Help: "Total HTTP requests handled",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration tracks HTTP request latency.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "persons_api_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
