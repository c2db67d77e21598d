package metric

import (
	"fmt"
	"sort"

	"driftwatch/domain/core"
	"driftwatch/ports"
)

// Registry holds the available drift metrics by name. The check engine
// resolves its configured metric here, so adding a metric means
// registering it and nothing else.
type Registry struct {
	factories map[string]func() ports.DriftMetric
}

// NewRegistry creates a registry with the built-in metrics
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]func() ports.DriftMetric)}
	r.Register("psi", func() ports.DriftMetric { return NewPSI() })
	r.Register("ks", func() ports.DriftMetric { return NewKS() })
	return r
}

// Register adds a metric factory under the given name, replacing any
// existing registration
func (r *Registry) Register(name string, factory func() ports.DriftMetric) {
	r.factories[name] = factory
}

// Get resolves a metric by name
func (r *Registry) Get(name string) (ports.DriftMetric, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownMetric, name)
	}
	return factory(), nil
}

// Names lists the registered metric names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
