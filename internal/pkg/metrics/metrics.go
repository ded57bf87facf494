package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the reservation engine. Registered on the default registry
// and exposed through promhttp on /metrics.
var (
	HoldsAcquired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_holds_acquired_total",
		Help: "Number of slot holds successfully acquired.",
	})

	HoldConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_hold_conflicts_total",
		Help: "Number of hold acquisitions lost to a capacity race.",
	})

	HoldsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_holds_released_total",
		Help: "Number of slot holds explicitly released.",
	})

	HoldsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_holds_expired_total",
		Help: "Number of stale holds flipped to expired by the sweeper.",
	})

	RequestsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_requests_expired_total",
		Help: "Number of booking requests expired past their offer deadline.",
	})

	PaymentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_payments_completed_total",
		Help: "Number of booking requests advanced to paid.",
	})

	AuditViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_capacity_audit_violations_total",
		Help: "Number of capacity invariant violations detected by the audit job.",
	})
)
