package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "schemadrift"

// Metrics holds the run counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	categories *prometheus.CounterVec
	fields     prometheus.Counter
	checks     *prometheus.CounterVec
	artifacts  prometheus.Counter
}

// NewMetrics registers the counters on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		categories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "categories_total",
			Help:      "Categories analyzed, by outcome.",
		}, []string{"outcome"}),
		fields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_profiled_total",
			Help:      "Field descriptors built.",
		}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Drift checks completed, by status.",
		}, []string{"status"}),
		artifacts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Generated files written.",
		}),
	}

	m.registry.MustRegister(m.categories, m.fields, m.checks, m.artifacts)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

// CategoryAnalyzed counts one category with outcome "ok" or "failed".
func (m *Metrics) CategoryAnalyzed(outcome string) {
	if m == nil {
		return
	}

	m.categories.WithLabelValues(outcome).Inc()
}

// FieldsProfiled adds n profiled fields.
func (m *Metrics) FieldsProfiled(n int) {
	if m == nil {
		return
	}

	m.fields.Add(float64(n))
}

// CheckCompleted counts one drift check result.
func (m *Metrics) CheckCompleted(status string) {
	if m == nil {
		return
	}

	m.checks.WithLabelValues(status).Inc()
}

// ArtifactsWritten adds n written files.
func (m *Metrics) ArtifactsWritten(n int) {
	if m == nil {
		return
	}

	m.artifacts.Add(float64(n))
}

// WriteTextfile dumps the counters in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
