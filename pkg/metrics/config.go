package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Config selects where and how a component registers its collectors.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry receives the collectors. Nil means prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace prefixes metric names. Empty means DefaultNamespace.
	Namespace string

	// Labels are constant labels attached to every collector.
	Labels prometheus.Labels
}

// DefaultConfig returns an enabled configuration on the default registerer.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
	}
}

// Instrumentable is implemented by components whose metrics can be toggled
// after construction.
type Instrumentable interface {
	EnableMetrics(config Config) error
	DisableMetrics()
	MetricsEnabled() bool
}

type registryKey struct {
	reg       prometheus.Registerer
	namespace string
	labels    string
}

func (c Config) base() prometheus.Registerer {
	if c.Registry == nil {
		return prometheus.DefaultRegisterer
	}
	return c.Registry
}

// registerer wraps the base registerer with the constant labels, if any.
func (c Config) registerer() prometheus.Registerer {
	if len(c.Labels) == 0 {
		return c.base()
	}
	return prometheus.WrapRegistererWith(c.Labels, c.base())
}

func (c Config) key() registryKey {
	namespace := c.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return registryKey{reg: c.base(), namespace: namespace, labels: labelKey(c.Labels)}
}

func labelKey(labels prometheus.Labels) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
