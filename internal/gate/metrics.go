package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts gate decisions and session-validation outcomes.
// All methods are nil-safe so wiring metrics stays optional.
type Metrics struct {
	decisions   *prometheus.CounterVec
	validations *prometheus.CounterVec
	failOpens   prometheus.Counter
	cookiePass  prometheus.Counter
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "decisions_total",
			Help:      "Gate decisions by outcome and reason",
		}, []string{"outcome", "reason"}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "session_validations_total",
			Help:      "Session validation outcomes",
		}, []string{"status"}),
		failOpens: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "fail_open_total",
			Help:      "Requests allowed through due to internal gate failures",
		}),
		cookiePass: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "cookie_passthrough_total",
			Help:      "Requests allowed on plausible provider cookies without a validated session",
		}),
	}
}

func (m *Metrics) Decision(outcome, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.decisions.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) Validation(status string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(status).Inc()
}

func (m *Metrics) FailOpen() {
	if m == nil {
		return
	}
	m.failOpens.Inc()
}

func (m *Metrics) CookiePassthrough() {
	if m == nil {
		return
	}
	m.cookiePass.Inc()
}
