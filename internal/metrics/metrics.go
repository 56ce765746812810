package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "plprediction"

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	submissions *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gives collectors that are
// recorded but never exported, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submission attempts by result (created, conflict, invalid, error).",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Standings refreshes by outcome (updated, fallback, error).",
		}, []string{"outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template, method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
	if reg != nil {
		reg.MustRegister(m.submissions, m.refreshes, m.requests)
	}
	return m
}

func (m *Metrics) Submission(result string) {
	m.submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) Refresh(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Request(route, method, code string, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, code).Observe(elapsed.Seconds())
}
