// Package config provides the configuration schema and loader for the
// Voxfront API server and agent worker.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Voxfront.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader],
// with secrets overlaid from the environment by [ApplyEnv].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Room       RoomConfig       `yaml:"room"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Personas   PersonasConfig   `yaml:"personas"`
	Recordings RecordingsConfig `yaml:"recordings"`
}

// ServerConfig holds network and logging settings for the API server.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8000").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// RoomConfig holds the connection settings for the external real-time room
// service that carries live conversations. All three fields must be set for
// live sessions; otherwise the token service issues mock credentials.
type RoomConfig struct {
	// URL is the room service WebSocket endpoint (e.g., "wss://rooms.example.com").
	URL string `yaml:"url"`

	// APIKey identifies this deployment to the room service.
	APIKey string `yaml:"api_key"`

	// APISecret signs room access credentials. Keep it out of config files;
	// prefer the ROOM_API_SECRET environment variable.
	APISecret string `yaml:"api_secret"`

	// TokenTTL is the credential validity window in seconds. Zero selects
	// the default of one hour.
	TokenTTL int `yaml:"token_ttl"`
}

// RealtimeConfig selects and authenticates the speech-to-speech model.
type RealtimeConfig struct {
	// APIKey authenticates against the realtime model API. Prefer the
	// REALTIME_API_KEY environment variable.
	APIKey string `yaml:"api_key"`

	// Model overrides the default model identifier.
	Model string `yaml:"model"`

	// BaseURL overrides the default realtime endpoint. Used in tests.
	BaseURL string `yaml:"base_url"`
}

// PersonasConfig locates the persona definition files.
type PersonasConfig struct {
	// Dir is the directory scanned for *.yaml persona definitions.
	Dir string `yaml:"dir"`
}

// RecordingsConfig controls transcript persistence.
type RecordingsConfig struct {
	// Dir is the root directory for per-session transcript output.
	Dir string `yaml:"dir"`

	// DisableMetadata suppresses metadata.json; only transcript.json is
	// written. Metadata is saved by default.
	DisableMetadata bool `yaml:"disable_metadata"`
}

// Status is the readiness report for the two external services.
type Status struct {
	// Room reports whether the room service is fully configured.
	Room bool `json:"room"`

	// Realtime reports whether the speech-to-speech model is configured.
	Realtime bool `json:"realtime"`
}

// Ready reports whether both external services are configured.
func (s Status) Ready() bool { return s.Room && s.Realtime }

// Missing lists the unconfigured services, in a fixed order.
func (s Status) Missing() []string {
	var missing []string
	if !s.Room {
		missing = append(missing, "room")
	}
	if !s.Realtime {
		missing = append(missing, "realtime")
	}
	return missing
}

// RoomConfigured reports whether all room service settings are present.
func (c *Config) RoomConfigured() bool {
	return c.Room.URL != "" && c.Room.APIKey != "" && c.Room.APISecret != ""
}

// RealtimeConfigured reports whether the model API key is present.
func (c *Config) RealtimeConfigured() bool {
	return c.Realtime.APIKey != ""
}

// Status returns the readiness pair for both external services.
func (c *Config) Status() Status {
	return Status{
		Room:     c.RoomConfigured(),
		Realtime: c.RealtimeConfigured(),
	}
}
