package customer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/voxfront/voxfront/internal/persona"
)

// ErrNotFound is returned by Get and Update when no customer with the
// requested id exists.
var ErrNotFound = errors.New("customer not found")

// ErrDefaultProtected is returned by Delete when the caller attempts to
// remove the reserved default customer.
var ErrDefaultProtected = errors.New("default customer cannot be deleted")

// Store is a thread-safe in-memory customer store seeded from the persona
// registry. HTTP handlers operate on it concurrently, so every operation is
// serialised through an RWMutex.
type Store struct {
	mu        sync.RWMutex
	customers map[string]Config
}

// NewStore builds a [Store] holding one [Config] per registered persona.
func NewStore(reg *persona.Registry) *Store {
	s := &Store{customers: make(map[string]Config, reg.Len())}
	for id, p := range reg.All() {
		s.customers[id] = FromPersona(p)
	}
	slog.Info("customer store seeded", "count", len(s.customers))
	return s
}

// Get returns the customer with the given id.
// Returns [ErrNotFound] when no such customer exists.
func (s *Store) Get(id string) (Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return Config{}, ErrNotFound
	}
	return c, nil
}

// ListAll returns every customer, sorted by id for deterministic output.
func (s *Store) ListAll() []Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(func(Config) bool { return true })
}

// ListActive returns every customer whose active flag is set, sorted by id.
func (s *Store) ListActive() []Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(func(c Config) bool { return c.Active })
}

// Create inserts c, generating an id when absent, filling empty optional
// fields with the persona defaults, and stamping the creation time when
// unset. The caller's active flag is kept as given. An existing customer
// with the same id is silently replaced.
func (s *Store) Create(c Config) (Config, error) {
	if c.ID == "" {
		id, err := NewID()
		if err != nil {
			return Config{}, err
		}
		c.ID = id
	}

	p := c.Persona()
	p.ApplyDefaults()
	defaulted := FromPersona(p)
	defaulted.Active = c.Active
	defaulted.CreatedAt = c.CreatedAt
	if defaulted.CreatedAt == "" {
		defaulted.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	c = defaulted

	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
	return c, nil
}

// Update applies the non-nil fields of u to the customer with the given id
// and returns the updated config. Returns [ErrNotFound] for an unknown id.
func (s *Store) Update(id string, u Updates) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return Config{}, ErrNotFound
	}
	u.apply(&c)
	s.customers[id] = c
	return c, nil
}

// Delete removes the customer with the given id and reports whether a row
// was removed. Deleting [persona.DefaultID] returns [ErrDefaultProtected]
// regardless of store state.
func (s *Store) Delete(id string) (bool, error) {
	if id == persona.DefaultID {
		return false, fmt.Errorf("customer: delete %q: %w", id, ErrDefaultProtected)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return false, nil
	}
	delete(s.customers, id)
	return true, nil
}

// snapshot copies matching customers out of the map. Callers must hold mu.
func (s *Store) snapshot(match func(Config) bool) []Config {
	result := make([]Config, 0, len(s.customers))
	for _, c := range s.customers {
		if match(c) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Updates carries the recognised partial-update fields for [Store.Update].
// Nil pointers leave the corresponding field untouched.
type Updates struct {
	Name            *string   `json:"name"`
	AgentName       *string   `json:"agent_name"`
	AgentType       *string   `json:"agent_type"`
	Voice           *string   `json:"voice"`
	Language        *string   `json:"language"`
	SystemPrompt    *string   `json:"system_prompt"`
	Greeting        *string   `json:"greeting"`
	Farewell        *string   `json:"farewell"`
	BusinessHours   *string   `json:"business_hours"`
	BusinessAddress *string   `json:"business_address"`
	Services        *[]string `json:"services"`
	Active          *bool     `json:"is_active"`
}

// IsZero reports whether the update contains no fields at all.
func (u Updates) IsZero() bool {
	return u.Name == nil && u.AgentName == nil && u.AgentType == nil &&
		u.Voice == nil && u.Language == nil && u.SystemPrompt == nil &&
		u.Greeting == nil && u.Farewell == nil && u.BusinessHours == nil &&
		u.BusinessAddress == nil && u.Services == nil && u.Active == nil
}

func (u Updates) apply(c *Config) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.AgentName != nil {
		c.AgentName = *u.AgentName
	}
	if u.AgentType != nil {
		c.AgentType = *u.AgentType
	}
	if u.Voice != nil {
		c.Voice = *u.Voice
	}
	if u.Language != nil {
		c.Language = *u.Language
	}
	if u.SystemPrompt != nil {
		c.SystemPrompt = *u.SystemPrompt
	}
	if u.Greeting != nil {
		c.Greeting = *u.Greeting
	}
	if u.Farewell != nil {
		c.Farewell = *u.Farewell
	}
	if u.BusinessHours != nil {
		c.BusinessHours = *u.BusinessHours
	}
	if u.BusinessAddress != nil {
		c.BusinessAddress = *u.BusinessAddress
	}
	if u.Services != nil {
		c.Services = *u.Services
	}
	if u.Active != nil {
		c.Active = *u.Active
	}
}
