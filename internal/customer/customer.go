// Package customer provides the runtime CRUD layer over persona definitions.
//
// A [Config] is the runtime-mutable projection of a [persona.Persona] plus
// generated bookkeeping fields (id, active flag, creation timestamp). The
// [Store] is seeded from the persona registry at construction; creates,
// updates, and deletes performed through the HTTP API mutate only the
// in-memory copy and are lost on restart; the persona definition files
// remain the durable source of truth.
package customer

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/voxfront/voxfront/internal/persona"
)

// Config is one customer's agent configuration as held by the [Store].
type Config struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AgentName string `json:"agent_name"`
	AgentType string `json:"agent_type"`
	Voice     string `json:"voice"`
	Language  string `json:"language"`

	SystemPrompt string `json:"system_prompt"`
	Greeting     string `json:"greeting"`
	Farewell     string `json:"farewell"`

	BusinessHours   string   `json:"business_hours,omitempty"`
	BusinessAddress string   `json:"business_address,omitempty"`
	Services        []string `json:"services,omitempty"`

	Active    bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// Persona projects the config back into a [persona.Persona] so that prompt
// assembly works identically for registry-loaded and API-created customers.
func (c Config) Persona() persona.Persona {
	return persona.Persona{
		ID:              c.ID,
		Name:            c.Name,
		AgentName:       c.AgentName,
		AgentType:       c.AgentType,
		Voice:           c.Voice,
		Language:        c.Language,
		SystemPrompt:    c.SystemPrompt,
		Greeting:        c.Greeting,
		Farewell:        c.Farewell,
		BusinessHours:   c.BusinessHours,
		BusinessAddress: c.BusinessAddress,
		Services:        c.Services,
	}
}

// FromPersona wraps a persona in a [Config] with the active flag set and the
// creation timestamp stamped.
func FromPersona(p persona.Persona) Config {
	return Config{
		ID:              p.ID,
		Name:            p.Name,
		AgentName:       p.AgentName,
		AgentType:       p.AgentType,
		Voice:           p.Voice,
		Language:        p.Language,
		SystemPrompt:    p.SystemPrompt,
		Greeting:        p.Greeting,
		Farewell:        p.Farewell,
		BusinessHours:   p.BusinessHours,
		BusinessAddress: p.BusinessAddress,
		Services:        p.Services,
		Active:          true,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}
}

// NewID produces a short random customer or session identifier: 8 lowercase
// hex characters from crypto/rand.
func NewID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("customer: generate id: %w", err)
	}
	return strings.ToLower(hex.EncodeToString(buf)), nil
}
