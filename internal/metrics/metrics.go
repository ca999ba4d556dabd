package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "session_gateway"

// Session exports resolver events. It satisfies session.Recorder.
type Session struct {
	verifyTotal         *prometheus.CounterVec
	resolveTotal        *prometheus.CounterVec
	refreshFailureTotal *prometheus.CounterVec
}

// NewSession registers the session collectors on reg. A nil reg uses the default registerer.
func NewSession(reg prometheus.Registerer) *Session {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &Session{
		verifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_verify_total",
			Help:      "Session token verifications by status and reason",
		}, []string{"status", "reason"}),
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resolve_total",
			Help:      "Session resolutions by outcome and whether a token was reissued",
		}, []string{"status", "reissued"}),
		refreshFailureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refresh_failures_total",
			Help:      "Failed refresh attempts by stage",
		}, []string{"stage"}),
	}
	reg.MustRegister(s.verifyTotal, s.resolveTotal, s.refreshFailureTotal)
	return s
}

func (s *Session) ObserveVerify(status, reason string) {
	if reason == "" {
		reason = "none"
	}
	s.verifyTotal.WithLabelValues(status, reason).Inc()
}

func (s *Session) ObserveResolve(status string, reissued bool) {
	s.resolveTotal.WithLabelValues(status, strconv.FormatBool(reissued)).Inc()
}

func (s *Session) ObserveRefreshFailure(stage string) {
	s.refreshFailureTotal.WithLabelValues(stage).Inc()
}

// Handler serves the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
