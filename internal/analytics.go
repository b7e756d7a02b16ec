package internal

import "github.com/prometheus/client_golang/prometheus"

var (
	blueprintAPIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_api_requests_total",
			Help: "Platform API requests by method and status code",
		},
		[]string{"method", "status"},
	)

	blueprintRateLimitHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blueprint_api_ratelimit_total",
			Help: "Count of TooManyRequests responses received",
		},
	)

	blueprintEntitiesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_entities_created_total",
			Help: "Entities created during restore and rebuild operations",
		},
		[]string{"type"},
	)

	blueprintEntitiesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_entities_deleted_total",
			Help: "Entities deleted during teardown and rebuild operations",
		},
		[]string{"type"},
	)

	blueprintEntityFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_entity_failures_total",
			Help: "Per entity failures that were logged and skipped",
		},
		[]string{"type"},
	)

	blueprintOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_operations_total",
			Help: "Backup, restore and rebuild operations by result",
		},
		[]string{"operation", "result"},
	)
)

// RegisterMetrics makes the engine's collectors visible on the default
// prometheus registry. Counters work unregistered, so tests skip this.
func RegisterMetrics() {
	prometheus.MustRegister(
		blueprintAPIRequests,
		blueprintRateLimitHits,
		blueprintEntitiesCreated,
		blueprintEntitiesDeleted,
		blueprintEntityFailures,
		blueprintOperations,
	)
}
