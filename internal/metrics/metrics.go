// Package metrics declares the Prometheus collectors of the portal.  The
// collectors are usable before registration, so tests never call Register.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SignInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_signins_total",
			Help: "Password sign-in attempts by result.",
		},
		[]string{"result"},
	)

	MFAVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_mfa_verifications_total",
			Help: "One-time code verifications by result.",
		},
		[]string{"result"},
	)

	BookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_bookings_total",
			Help: "Slot claims by result.",
		},
		[]string{"result"},
	)

	SlotsSeededTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_slots_seeded_total",
			Help: "Slots inserted by calendar seeding.",
		},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_notifications_total",
			Help: "Outgoing email notifications by channel and result.",
		},
		[]string{"channel", "result"},
	)

	PurgedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_purged_rows_total",
			Help: "Expired rows removed by the purge job.",
		},
		[]string{"table"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		SignInsTotal,
		MFAVerificationsTotal,
		BookingsTotal,
		SlotsSeededTotal,
		NotificationsTotal,
		PurgedRowsTotal,
	)
}
