package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry. All methods are safe on a nil Recorder so
// components can run without metrics.
type Recorder struct {
	registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	sections         *prometheus.CounterVec
	superseded       prometheus.Counter
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Outbound provider requests by outcome.",
		}, []string{"provider", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Latency of outbound provider requests.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		}, []string{"provider"}),
		sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_sections_total",
			Help: "Snapshot sections by final state.",
		}, []string{"section", "state"}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "search_superseded_total",
			Help: "Searches discarded because a newer search was issued.",
		}),
	}
	reg.MustRegister(r.providerRequests, r.providerLatency, r.sections, r.superseded)
	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveProvider records one provider call.
func (r *Recorder) ObserveProvider(provider, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.providerRequests.WithLabelValues(provider, outcome).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveSection records the final state of a snapshot section.
func (r *Recorder) ObserveSection(section, state string) {
	if r == nil {
		return
	}
	r.sections.WithLabelValues(section, state).Inc()
}

// IncSuperseded counts a discarded search.
func (r *Recorder) IncSuperseded() {
	if r == nil {
		return
	}
	r.superseded.Inc()
}
