// Package persona provides the persona registry for Voxfront.
//
// A persona is a named bundle of identity, voice, and prompt configuration
// for one conversational agent variant. Personas are defined as YAML files in
// a definitions directory and loaded once at process start via [Load]. The
// resulting [Registry] is an explicit, constructed object passed to whichever
// component needs it — there is no package-level singleton.
//
// Definition files that fail to parse or lack an id are logged and skipped;
// loading never fails because one file is broken. Two files defining the same
// id is a conflict and surfaces as [ErrDuplicateID] rather than a silent
// last-wins overwrite.
package persona

// Default values applied to personas that omit optional fields.
const (
	// DefaultID is the reserved persona id that must always resolve.
	// The customer store refuses to delete it and the agent worker falls
	// back to it when session metadata names an unknown customer.
	DefaultID = "demo"

	// DefaultAgentName is used when a definition omits agent_name.
	DefaultAgentName = "Lisa"

	// DefaultAgentType is used when a definition omits agent_type.
	DefaultAgentType = "assistant"

	// DefaultVoice is used when a definition omits voice.
	DefaultVoice = "eve"

	// DefaultGreeting is the greeting template used when a definition
	// omits greeting. Supports the {user_name} and {agent_name} placeholders.
	DefaultGreeting = "Hello {user_name}! I'm {agent_name}. How can I help?"

	// DefaultFarewell is used when a definition omits farewell.
	DefaultFarewell = "Goodbye! Have a great day."
)

// Persona describes one conversational agent variant: who it is, how it
// sounds, and what it knows about the business it represents.
type Persona struct {
	// ID is the unique identifier within the registry. Required.
	ID string `yaml:"id"`

	// Name is the display name of the business or tenant this persona
	// represents (e.g., "Bright Smile Dental"). Required.
	Name string `yaml:"name"`

	// AgentName is the name the agent introduces itself with.
	AgentName string `yaml:"agent_name"`

	// AgentType classifies the persona (e.g., "dental", "medical_receptionist").
	AgentType string `yaml:"agent_type"`

	// Voice selects the speech-to-speech model voice.
	Voice string `yaml:"voice"`

	// Language is the persona's default conversation language code.
	Language string `yaml:"language"`

	// SystemPrompt is the persona's prompt body, written in English. The
	// model adapts to the session language at runtime.
	SystemPrompt string `yaml:"system_prompt"`

	// Greeting is the greeting template. {user_name} and {agent_name}
	// placeholders are substituted at session start.
	Greeting string `yaml:"greeting"`

	// Farewell is the closing message template.
	Farewell string `yaml:"farewell"`

	// BusinessHours describes opening hours, free text. Optional.
	BusinessHours string `yaml:"business_hours"`

	// BusinessAddress is the street address. Optional.
	BusinessAddress string `yaml:"business_address"`

	// Services lists offered services. Optional.
	Services []string `yaml:"services"`
}

// ApplyDefaults fills zero-valued optional fields with package defaults.
// The registry applies it on registration; the customer store applies it to
// API-created customers so both paths yield fully populated personas.
// ID and Name are deliberately left untouched — their absence makes the
// definition malformed, which the loader handles.
func (p *Persona) ApplyDefaults() {
	if p.AgentName == "" {
		p.AgentName = DefaultAgentName
	}
	if p.AgentType == "" {
		p.AgentType = DefaultAgentType
	}
	if p.Voice == "" {
		p.Voice = DefaultVoice
	}
	if p.Language == "" {
		p.Language = "en"
	}
	if p.Greeting == "" {
		p.Greeting = DefaultGreeting
	}
	if p.Farewell == "" {
		p.Farewell = DefaultFarewell
	}
}
