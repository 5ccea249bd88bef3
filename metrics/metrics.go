// Package metrics counts ingestion and aggregation activity in Prometheus
// collectors. A nil *Metrics is valid and records nothing, so components
// take one unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/teranos/globi/errors"
)

const namespace = "globi"

// Record outcomes.
const (
	OutcomeIngested = "ingested"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Metrics holds the collectors of one run.
type Metrics struct {
	registry *prometheus.Registry

	// RecordsTotal counts records by outcome (ingested, skipped, failed).
	RecordsTotal *prometheus.CounterVec

	// ValidationFailuresTotal counts rejected records by validator reason.
	ValidationFailuresTotal *prometheus.CounterVec

	// ExternalCallsTotal counts DOI and geocoding lookups.
	// Labels: service, outcome (ok, error)
	ExternalCallsTotal *prometheus.CounterVec

	// EntitiesCreatedTotal counts created nodes by kind.
	EntitiesCreatedTotal *prometheus.CounterVec

	SummaryEdgesTotal prometheus.Counter

	AggregateDurationSeconds prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RecordsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Interaction records processed, by outcome",
		}, []string{"outcome"}),
		ValidationFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Records rejected by the validator, by reason",
		}, []string{"reason"}),
		ExternalCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_calls_total",
			Help:      "Calls to external lookup services",
		}, []string{"service", "outcome"}),
		EntitiesCreatedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Graph nodes created, by kind",
		}, []string{"kind"}),
		SummaryEdgesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_edges_total",
			Help:      "Taxon interaction summary edges written",
		}),
		AggregateDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_duration_seconds",
			Help:      "Duration of aggregation runs",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		}),
	}
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Record(outcome string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ValidationFailure(reason string) {
	if m == nil {
		return
	}
	m.ValidationFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ExternalCall(service, outcome string) {
	if m == nil {
		return
	}
	m.ExternalCallsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *Metrics) EntityCreated(kind string) {
	if m == nil {
		return
	}
	m.EntitiesCreatedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) SummaryEdges(n int) {
	if m == nil {
		return
	}
	m.SummaryEdgesTotal.Add(float64(n))
}

func (m *Metrics) AggregateDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.AggregateDurationSeconds.Observe(d.Seconds())
}

// WriteTextfile writes the current values in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
