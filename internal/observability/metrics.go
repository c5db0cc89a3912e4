package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authentication outcomes recorded by the auth middleware.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeMissingToken  = "missing_token"
	OutcomeInvalidToken  = "invalid_token"
	OutcomeExpiredToken  = "expired_token"
	OutcomeNoProfile     = "profile_not_found"
	OutcomeStoreError    = "store_unavailable"
)

// Metrics is the set of collectors for identity resolution.
type Metrics struct {
	AuthOutcomes      *prometheus.CounterVec
	HydrationDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg. A nil reg creates
// unregistered collectors, which is what tests usually want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuthOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "saas",
			Subsystem: "auth",
			Name:      "requests_total",
			Help:      "Authentication attempts by outcome",
		}, []string{"outcome"}),
		HydrationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "saas",
			Subsystem: "auth",
			Name:      "hydration_duration_seconds",
			Help:      "Time spent loading a caller's profile and memberships",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}
}

// ObserveOutcome counts one authentication attempt. Safe on a nil receiver.
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.AuthOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveHydration records how long a hydration took. Safe on a nil receiver.
func (m *Metrics) ObserveHydration(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.HydrationDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
