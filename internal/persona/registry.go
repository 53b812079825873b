package persona

import (
	"errors"
	"fmt"
	"maps"
)

// ErrDuplicateID is returned by [Registry.Register] and [Load] when two
// definitions share the same id. Silent last-wins overwrites are never applied.
var ErrDuplicateID = errors.New("persona with that ID already registered")

// Registry holds all loaded personas, keyed by id. It is populated once at
// startup and read-only afterwards, so no synchronisation is required.
type Registry struct {
	personas map[string]Persona
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{personas: make(map[string]Persona)}
}

// Register adds p to the registry after applying defaults for optional fields.
// Returns [ErrDuplicateID] if a persona with the same id is already present.
func (r *Registry) Register(p Persona) error {
	if p.ID == "" {
		return fmt.Errorf("persona: register: id must not be empty")
	}
	if _, exists := r.personas[p.ID]; exists {
		return fmt.Errorf("persona: register %q: %w", p.ID, ErrDuplicateID)
	}
	p.ApplyDefaults()
	r.personas[p.ID] = p
	return nil
}

// Get returns the persona with the given id and whether it exists.
func (r *Registry) Get(id string) (Persona, bool) {
	p, ok := r.personas[id]
	return p, ok
}

// All returns a copy of the id → persona mapping.
func (r *Registry) All() map[string]Persona {
	return maps.Clone(r.personas)
}

// Len returns the number of registered personas.
func (r *Registry) Len() int {
	return len(r.personas)
}
