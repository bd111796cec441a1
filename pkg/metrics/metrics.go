package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Maintenance loop metrics
	ReturnsDetected  prometheus.Counter
	ContactsExpired  prometheus.Counter
	CouponsLinked    prometheus.Counter
	MaintenanceRuns  prometheus.Counter
	MaintenanceFails prometheus.Counter
	MaintenanceTime  prometheus.Histogram

	// Recording metrics
	ContactsRecorded  *prometheus.CounterVec
	EligibilityChecks *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		ReturnsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "returns_detected_total",
			Help:      "Total number of pending contacts resolved as returned",
		}),
		ContactsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_expired_total",
			Help:      "Total number of pending contacts expired",
		}),
		CouponsLinked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_linked_total",
			Help:      "Total number of coupon redemptions linked to contacts",
		}),
		MaintenanceRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_runs_total",
			Help:      "Total number of maintenance batches executed",
		}),
		MaintenanceFails: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_failures_total",
			Help:      "Total number of failed maintenance batches",
		}),
		MaintenanceTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "maintenance_duration_seconds",
			Help:      "Time spent running one maintenance batch",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		ContactsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_recorded_total",
			Help:      "Total number of contacts recorded",
		}, []string{"source"}),
		EligibilityChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eligibility_checks_total",
			Help:      "Total number of eligibility verdicts by reason",
		}, []string{"reason"}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Database operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
