package carrier

import (
	"github.com/rotisserie/eris"
)

// Registry maps carrier keys to their statement adapters.
type Registry struct {
	adapters  map[string]Adapter
	order     []string // insertion order for deterministic iteration
	fallback  Adapter
	extractor TextExtractor
}

// NewRegistry creates a registry populated with all carrier adapters.
// The extractor is used by PDF-based carriers.
func NewRegistry(extractor TextExtractor) *Registry {
	r := &Registry{
		adapters:  make(map[string]Adapter),
		fallback:  generic{},
		extractor: extractor,
	}

	r.Register(nationalGeneral{})
	r.Register(progressive{})
	r.Register(safeco{})
	r.Register(grange{})
	r.Register(travelers{})
	r.Register(geico{})
	r.Register(firstConnect{})
	r.Register(universal{})
	r.Register(nbs{extractor: extractor})

	return r
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a Adapter) {
	name := a.Name()
	r.adapters[name] = a
	r.order = append(r.order, name)
}

// Get returns an adapter by carrier key.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, eris.Errorf("carrier: unknown carrier %q", name)
	}
	return a, nil
}

// GetOrGeneric returns the named adapter, falling back to the generic
// column-guessing adapter for carriers without a dedicated one.
func (r *Registry) GetOrGeneric(name string) Adapter {
	if a, ok := r.adapters[name]; ok {
		return a
	}
	return r.fallback
}

// Fallback returns the generic adapter used for unregistered carriers.
func (r *Registry) Fallback() Adapter {
	return r.fallback
}

// All returns all adapters in registration order.
func (r *Registry) All() []Adapter {
	result := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.adapters[name])
	}
	return result
}

// AllNames returns all registered carrier keys in registration order.
func (r *Registry) AllNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
