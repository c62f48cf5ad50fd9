package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace replaces the "kpibonus" metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "engine" metric subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the HTTP request duration buckets. Unsorted
// input is ignored.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if validBuckets(buckets) {
			m.latencyBuckets = buckets
		}
	}
}

// WithImportBuckets sets the import duration buckets. Unsorted input is
// ignored.
func WithImportBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if validBuckets(buckets) {
			m.importBuckets = buckets
		}
	}
}

// WithPrometheusRegistry registers the metrics on r instead of the default
// registerer.
func WithPrometheusRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

func validBuckets(b []float64) bool {
	return len(b) > 0 && sort.Float64sAreSorted(b)
}
