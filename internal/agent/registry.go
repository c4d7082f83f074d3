package agent

import (
	"fmt"
	"sort"
)

// FallbackID is the agent every routing failure lands on. It must exist in
// any registry.
const FallbackID = "agent_mentor"

// Registry holds the specialist descriptors keyed by ID. It is populated
// once at startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	byID map[string]Descriptor
	ids  []string
}

func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("agent descriptor without id")
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", d.ID)
		}
		r.byID[d.ID] = d
		r.ids = append(r.ids, d.ID)
	}
	if _, ok := r.byID[FallbackID]; !ok {
		return nil, fmt.Errorf("registry requires the %s fallback agent", FallbackID)
	}
	sort.Strings(r.ids)
	return r, nil
}

func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Fallback returns the mentor descriptor.
func (r *Registry) Fallback() Descriptor {
	return r.byID[FallbackID]
}

// IDs returns the registered agent ids in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// All returns every descriptor, ordered by id.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}
