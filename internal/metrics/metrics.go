package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
)

// Metrics provides observability for filter rehydration and reference lookups.
type Metrics struct {
	// Per-filter rehydration outcomes (resolved, defaulted, dropped, failed)
	FilterOutcome *prometheus.CounterVec

	// Form loads by result (applied, superseded, failed)
	FormLoads *prometheus.CounterVec

	// Reference lookup latency by entity type and result
	LookupLatency *prometheus.HistogramVec
}

// New registers the search metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		FilterOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordsearch_filter_outcomes_total",
			Help: "Rehydrated filters by entity type, key and outcome",
		}, []string{"entity_type", "key", "outcome"}),

		FormLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordsearch_form_loads_total",
			Help: "Search form loads by entity type and result",
		}, []string{"entity_type", "result"}),

		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recordsearch_lookup_duration_seconds",
			Help:    "Duration of reference lookups by entity type and result",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"entity_type", "result"}), // result: "found", "not_found", "error"
	}
}

// ObserveFilterOutcome records how one filter came back from a query.
func (m *Metrics) ObserveFilterOutcome(entityType domain.EntityType, key string, outcome filter.Outcome) {
	if m != nil {
		m.FilterOutcome.WithLabelValues(string(entityType), key, outcome.String()).Inc()
	}
}

// ObserveLoad records a form load result.
func (m *Metrics) ObserveLoad(entityType domain.EntityType, result string) {
	if m != nil {
		m.FormLoads.WithLabelValues(string(entityType), result).Inc()
	}
}

// ObserveLookup records the duration of one reference lookup.
func (m *Metrics) ObserveLookup(entityType domain.EntityType, result string, d time.Duration) {
	if m != nil {
		m.LookupLatency.WithLabelValues(string(entityType), result).Observe(d.Seconds())
	}
}
