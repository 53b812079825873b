package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Load] when the config file omits a value.
const (
	DefaultListenAddr    = ":8000"
	DefaultPersonasDir   = "personas"
	DefaultRecordingsDir = "recordings"
)

// Load reads the YAML configuration file at path, overlays environment
// variables, and returns a validated [Config]. A missing config file is not
// an error: Load falls back to defaults plus environment in that case, so
// a deployment can run on environment variables alone.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := &Config{}
		applyDefaults(cfg)
		ApplyEnv(cfg)
		return cfg, Validate(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	ApplyEnv(cfg)
	return cfg, Validate(cfg)
}

// LoadFromReader decodes a YAML config from r and applies defaults. Useful
// in tests where configs are constructed from string literals. It does not
// overlay the environment or validate; [Load] does both.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// ApplyEnv overlays secrets and connection settings from the environment.
// A set environment variable always wins over the config file so that
// credentials never need to live on disk.
func ApplyEnv(cfg *Config) {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.Server.ListenAddr, "LISTEN_ADDR")
	overlay(&cfg.Room.URL, "ROOM_URL")
	overlay(&cfg.Room.APIKey, "ROOM_API_KEY")
	overlay(&cfg.Room.APISecret, "ROOM_API_SECRET")
	overlay(&cfg.Realtime.APIKey, "REALTIME_API_KEY")
	overlay(&cfg.Personas.Dir, "PERSONAS_DIR")
	overlay(&cfg.Recordings.Dir, "RECORDINGS_DIR")
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Room.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("room.token_ttl %d must not be negative", cfg.Room.TokenTTL))
	}

	// Partial room credentials are almost always a deployment mistake:
	// the service silently degrades to mock sessions.
	set := 0
	for _, v := range []string{cfg.Room.URL, cfg.Room.APIKey, cfg.Room.APISecret} {
		if v != "" {
			set++
		}
	}
	if set > 0 && set < 3 {
		errs = append(errs, errors.New("room service is partially configured; set url, api_key, and api_secret together or none of them"))
	}

	return errors.Join(errs...)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Personas.Dir == "" {
		cfg.Personas.Dir = DefaultPersonasDir
	}
	if cfg.Recordings.Dir == "" {
		cfg.Recordings.Dir = DefaultRecordingsDir
	}
}
