// Package metrics records build counters with Prometheus and exports them as a textfile.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/core/ports"
)

const namespace = "quire"

var _ ports.Metrics = (*PrometheusRecorder)(nil)

// PrometheusRecorder implements ports.Metrics on a private registry.
type PrometheusRecorder struct {
	registry      *prom.Registry
	demand        *prom.CounterVec
	writes        *prom.CounterVec
	invalidations *prom.CounterVec
	entries       *prom.CounterVec
	buildDuration prom.Histogram
}

// NewPrometheusRecorder constructs and registers the build metrics. A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		demand: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "demand_lookups_total",
			Help:      "Demand cache lookups by cache and outcome",
		}, []string{"cache", "outcome"}),
		writes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Scoped file writes by result",
		}, []string{"result"}),
		invalidations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "invalidations_total",
			Help:      "Watch invalidations by graph dimension",
		}, []string{"dimension"}),
		entries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Processed entries by final status",
		}, []string{"status"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.demand, pr.writes, pr.invalidations, pr.entries, pr.buildDuration)
	return pr
}

func (p *PrometheusRecorder) IncDemand(cache, outcome string) {
	p.demand.WithLabelValues(cache, outcome).Inc()
}

func (p *PrometheusRecorder) IncWrite(result string) {
	p.writes.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncInvalidation(dimension string) {
	p.invalidations.WithLabelValues(dimension).Inc()
}

func (p *PrometheusRecorder) IncEntry(status string) {
	p.entries.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

// Flush writes every gathered metric to path. An empty path is a no-op.
func (p *PrometheusRecorder) Flush(path string) error {
	if path == "" {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics textfile"), "path", path)
	}
	return nil
}

// Registry exposes the underlying registry for gathering.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

func (NoopRecorder) IncDemand(string, string)           {}
func (NoopRecorder) IncWrite(string)                    {}
func (NoopRecorder) IncInvalidation(string)             {}
func (NoopRecorder) IncEntry(string)                    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) Flush(string) error                 { return nil }
