// Package metrics exposes Prometheus counters for session manager verbs and
// browser requests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// Metrics holds the collectors. It implements services.Observer.
type Metrics struct {
	verbs        *prometheus.CounterVec
	verbDuration *prometheus.HistogramVec
	requests     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Panics if registration fails.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		verbs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_session_verbs_total",
				Help: "Total number of session manager verbs by outcome",
			},
			[]string{"op", "kind"},
		),
		verbDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gophauth_session_verb_duration_seconds",
				Help:    "Session manager verb duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_http_requests_total",
				Help: "Total number of browser front end requests",
			},
			[]string{"method", "route", "status"},
		),
	}
	reg.MustRegister(m.verbs, m.verbDuration, m.requests)
	return m
}

// Observe records one finished verb.
func (m *Metrics) Observe(op services.Op, kind services.Kind, elapsed time.Duration) {
	m.verbs.WithLabelValues(string(op), string(kind)).Inc()
	m.verbDuration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

// RecordRequest counts one served HTTP request. route is the matched
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) RecordRequest(method, route string, status int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
