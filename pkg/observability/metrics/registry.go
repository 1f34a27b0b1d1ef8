// Package metrics provides Prometheus metrics for the reactive repository layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry manages Prometheus metrics registration.
// It carries the repository metrics and the Go runtime collectors.
type Registry struct {
	registry   *prometheus.Registry
	repository *RepositoryMetrics
}

// NewRegistry creates a registry with runtime collectors and RepositoryMetrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Registry{
		registry:   reg,
		repository: NewRepositoryMetrics(reg),
	}
}

// Repository returns the repository metrics bound to this registry.
func (r *Registry) Repository() *RepositoryMetrics {
	return r.repository
}

// Register registers a custom Prometheus collector.
func (r *Registry) Register(collector prometheus.Collector) error {
	return r.registry.Register(collector)
}

// MustRegister registers collectors and panics on error.
func (r *Registry) MustRegister(collectors ...prometheus.Collector) {
	r.registry.MustRegister(collectors...)
}

// Unregister removes a collector from the registry.
// This is primarily useful for testing.
func (r *Registry) Unregister(collector prometheus.Collector) bool {
	return r.registry.Unregister(collector)
}

// Gatherer returns the underlying prometheus.Gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteToFile writes the gathered families to path in the Prometheus text
// exposition format, replacing the file atomically.
func (r *Registry) WriteToFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
