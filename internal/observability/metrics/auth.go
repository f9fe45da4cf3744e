package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total number of auth requests",
		},
		[]string{"method", "path"},
	)

	AuthRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_requests_in_flight",
			Help: "Number of auth requests currently being processed",
		},
	)

	AuthRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_request_duration_seconds",
			Help:    "Duration of auth requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of registered users",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	TokenPairsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "token_pairs_issued_total",
			Help: "Total number of access/refresh token pairs issued",
		},
	)

	TokenPairsRotated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "token_pairs_rotated_total",
			Help: "Total number of refresh tokens consumed by rotation",
		},
	)

	TokenRotationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_rotations_rejected_total",
			Help: "Total number of rejected refresh attempts by reason",
		},
		[]string{"reason"},
	)

	TokenPairsRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "token_pairs_revoked_total",
			Help: "Total number of token pairs deleted by logout",
		},
	)

	TokenPairsCleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "token_pairs_cleanup_deleted_total",
			Help: "Total number of stale token pairs deleted during cleanup",
		},
	)

	AccessValidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_validations_total",
			Help: "Total number of access token validations",
		},
	)

	AccessValidationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_validations_failed_total",
			Help: "Total number of failed access token validations by reason",
		},
		[]string{"reason"},
	)
)
