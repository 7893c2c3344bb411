package connector

import (
	"portfolio_preview/internal/app/port"
)

// Registry holds the available source adapters keyed by connector ID.
type Registry struct {
	connectors map[string]port.Connector
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(connectors ...port.Connector) *Registry {
	r := &Registry{connectors: make(map[string]port.Connector, len(connectors))}
	for _, c := range connectors {
		r.connectors[c.ID()] = c
	}
	return r
}

// Get returns the adapter registered under id.
func (r *Registry) Get(id string) (port.Connector, bool) {
	c, ok := r.connectors[id]
	return c, ok
}

// IDs returns the registered connector IDs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.connectors))
	for id := range r.connectors {
		ids = append(ids, id)
	}
	return ids
}
