package agent

import (
	"errors"

	"github.com/kadirpekel/conductor/pkg/registry"
	"github.com/kadirpekel/conductor/pkg/schema"
)

// Registry catalogs agent descriptors by type name. Registration is
// all-or-nothing: a rejected descriptor leaves the catalog untouched.
type Registry struct {
	*registry.BaseRegistry[Descriptor]
}

// NewRegistry creates an empty agent registry
func NewRegistry() *Registry {
	return &Registry{
		BaseRegistry: registry.NewBaseRegistry[Descriptor](),
	}
}

// Register inserts a descriptor into the catalog. The descriptor's
// contracts are compiled up front so malformed schemas are rejected at
// registration time, not mid-run.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, err := schema.Compile("input", d.InputSchema); err != nil {
		return err
	}
	if _, err := schema.Compile("output", d.OutputSchema); err != nil {
		return err
	}

	if err := r.BaseRegistry.Register(d.Type, d); err != nil {
		if errors.Is(err, registry.ErrDuplicate) {
			return &DuplicateTypeError{Type: d.Type}
		}
		return err
	}
	return nil
}

// Resolve returns the descriptor registered under the given type
func (r *Registry) Resolve(agentType string) (Descriptor, error) {
	d, exists := r.Get(agentType)
	if !exists {
		return Descriptor{}, &UnknownAgentError{Type: agentType}
	}
	return d, nil
}

// Types returns all registered type names in registration order
func (r *Registry) Types() []string {
	return r.Names()
}

// Stats holds read-only registry counts for observability
type Stats struct {
	RegisteredTypes int `json:"registered_types"`
}

// Stats returns read-only counts; it is a pure query with no side effects
func (r *Registry) Stats() Stats {
	return Stats{
		RegisteredTypes: r.Count(),
	}
}
