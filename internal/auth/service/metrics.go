package service

import "github.com/Yaroher2442/FORTIFIED/internal/observability/metrics"

func incrementTokenPairsIssued() {
	metrics.TokenPairsIssued.Inc()
}

func incrementTokenPairsRotated() {
	metrics.TokenPairsRotated.Inc()
}

func incrementTokenPairsRevoked() {
	metrics.TokenPairsRevoked.Inc()
}

func incrementRotationRejected(reason string) {
	metrics.TokenRotationsRejected.WithLabelValues(reason).Inc()
}

func incrementValidation() {
	metrics.AccessValidationsTotal.Inc()
}

func incrementValidationFailed(reason string) {
	metrics.AccessValidationsFailed.WithLabelValues(reason).Inc()
}

func incrementLoginAttempt(outcome string) {
	metrics.LoginAttempts.WithLabelValues(outcome).Inc()
}

func incrementUsersRegistered() {
	metrics.UsersRegistered.Inc()
}
