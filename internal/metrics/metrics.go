// Package metrics holds the Prometheus collectors of the dashboard service.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fnb_dashboard"

type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	degradedFetches  prometheus.Counter
	publications     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the billing API by operation and outcome.",
		}, []string{"op", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of billing API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_cache_lookups_total",
			Help:      "Detail cache lookups made by the batch loader, by result.",
		}, []string{"result"}),
		degradedFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_detail_fetches_total",
			Help:      "Detail fetches that failed inside a batch and were recorded as empty.",
		}),
		publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_item_publications_total",
			Help:      "Menu-item aggregates published, by phase.",
		}, []string{"phase"}),
	}
	reg.MustRegister(m.upstreamRequests, m.upstreamDuration, m.cacheLookups, m.degradedFetches, m.publications)
	return m
}

// ObserveUpstream records one billing API call.
func (m *Metrics) ObserveUpstream(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamRequests.WithLabelValues(op, outcome).Inc()
	m.upstreamDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// CacheLookup records a hit or miss in the detail cache.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// DegradedFetch records a detail fetch recorded as empty after failing.
func (m *Metrics) DegradedFetch() {
	if m == nil {
		return
	}
	m.degradedFetches.Inc()
}

// Published records a menu-item publication.
func (m *Metrics) Published(phase string) {
	if m == nil {
		return
	}
	m.publications.WithLabelValues(phase).Inc()
}
