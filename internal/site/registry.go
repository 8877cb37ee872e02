package site

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Registry maps site keys to their adapters.
type Registry struct {
	adapters map[string]Adapter
	order    []string // insertion order for deterministic iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register validates and adds an adapter. Registering an existing key
// replaces the adapter but keeps its original position.
func (r *Registry) Register(a Adapter) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, ok := r.adapters[a.Key]; !ok {
		r.order = append(r.order, a.Key)
	}
	r.adapters[a.Key] = a
	return nil
}

// Get returns an adapter by key.
func (r *Registry) Get(key string) (Adapter, error) {
	a, ok := r.adapters[key]
	if !ok {
		return Adapter{}, eris.Errorf("site: unknown site %q", key)
	}
	return a, nil
}

// All returns all adapters in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.adapters[key])
	}
	return out
}

// Keys returns all registered keys in registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ByCountry groups adapters by country label, countries sorted.
func (r *Registry) ByCountry() ([]string, map[string][]Adapter) {
	groups := make(map[string][]Adapter)
	for _, a := range r.All() {
		groups[a.Country] = append(groups[a.Country], a)
	}
	countries := make([]string, 0, len(groups))
	for c := range groups {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries, groups
}
