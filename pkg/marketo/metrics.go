package marketo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	endpointIdentity = "identity"
	endpointData     = "data"
)

// Metrics are optional Prometheus collectors for a Client. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	RetriesTotal  *prometheus.CounterVec
	TokenFetches  prometheus.Counter
	RateLimitWait prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mkto_requests_total",
			Help: "Outbound Marketo requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		RetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mkto_retries_total",
			Help: "Retries scheduled after a retryable failure",
		}, []string{"endpoint"}),
		TokenFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mkto_token_fetches_total",
			Help: "Access token fetches from the identity endpoint",
		}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mkto_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a rate limiter slot",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RetriesTotal, m.TokenFetches, m.RateLimitWait)
	}
	return m
}

func (m *Metrics) observeRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
}

func (m *Metrics) observeRetry(endpoint string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) observeTokenFetch() {
	if m == nil {
		return
	}
	m.TokenFetches.Inc()
}

func (m *Metrics) observeWait(d time.Duration) {
	if m == nil {
		return
	}
	m.RateLimitWait.Observe(d.Seconds())
}

func outcome(err error) string {
	switch err.(type) {
	case nil:
		return "success"
	case *TransportError:
		return "transport_error"
	case *HTTPStatusError:
		return "http_error"
	case *APIError:
		return "api_error"
	default:
		return "error"
	}
}
