package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wikisophy"

// Metrics collects journey and cache metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	started      prometheus.Counter
	steps        prometheus.Counter
	finished     *prometheus.CounterVec
	stepDuration prometheus.Histogram
	cache        *prometheus.CounterVec
}

// NewMetrics registers the metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the metrics on reg and serves them from gatherer.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		started: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journeys_started_total",
			Help:      "Number of journeys started",
		}),
		steps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Number of resolved steps",
		}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journeys_finished_total",
			Help:      "Number of finished journeys by outcome",
		}, []string{"outcome"}),
		stepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent resolving one step",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		cache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups of the cached source by kind and result",
		}, []string{"kind", "result"}),
	}
}

// Hooks returns lifecycle hooks recording journey metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(_ context.Context, _ *domain.JourneyEvent) {
			m.started.Inc()
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.steps.Inc()
			m.stepDuration.Observe(e.Duration.Seconds())
		},
		OnFinish: func(_ context.Context, e *domain.JourneyEvent) {
			m.finished.WithLabelValues(string(e.Outcome)).Inc()
		},
	}
}

// ObserveCache records a cache lookup. kind is "markup" or "preview".
func (m *Metrics) ObserveCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(kind, result).Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
