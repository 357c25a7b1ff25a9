// Package metrics provides Prometheus metrics collection for the fetch
// pipeline.
//
// Metrics are optional. If InitRegistry is never called, constructors
// return nil and consumers fall back to their built-in no-op
// implementations, so an instrumented binary and a bare one share the same
// code path.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry. Safe to call
// more than once; only the first call has an effect.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return registry != nil
}
