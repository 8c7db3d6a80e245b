// Package metrics exposes Prometheus collectors for the fetch pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch results.
const (
	ResultCompleted = "completed"
	ResultEmpty     = "empty"
	ResultFailed    = "failed"
	ResultStale     = "stale"
	ResultCached    = "cached"
	ResultDropped   = "dropped"
)

// Pipeline holds the collectors of one registry.
//
// A nil *Pipeline records nothing.
type Pipeline struct {
	fetches   *prometheus.CounterVec
	latency   prometheus.Histogram
	treePolls prometheus.Counter
}

// NewPipeline registers the pipeline collectors with reg.
//
// Passing nil uses a private registry, which is useful in tests.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Pipeline{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tracechart_fetch_total",
			Help: "Series fetches by result",
		}, []string{"result"}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracechart_fetch_seconds",
			Help:    "Latency of series fetches",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		treePolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "tracechart_tree_polls_total",
			Help: "Tree requests made while waiting for analysis",
		}),
	}
}

// ObserveFetch records one finished fetch.
func (p *Pipeline) ObserveFetch(result string, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.fetches.WithLabelValues(result).Inc()
	if result != ResultCached && elapsed > 0 {
		p.latency.Observe(elapsed.Seconds())
	}
}

// IncTreePolls counts one tree request.
func (p *Pipeline) IncTreePolls() {
	if p == nil {
		return
	}
	p.treePolls.Inc()
}

// FetchCount returns the number of fetches recorded with result.
func (p *Pipeline) FetchCount(result string) float64 {
	if p == nil {
		return 0
	}
	return counterValue(p.fetches.WithLabelValues(result))
}

// TreePolls returns the number of tree requests recorded.
func (p *Pipeline) TreePolls() float64 {
	if p == nil {
		return 0
	}
	return counterValue(p.treePolls)
}
