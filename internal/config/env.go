package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

var ErrUnknownPreset = errors.New("config: unknown preset")

// ApplyEnv overrides fields from LATGAS_* environment variables. Unset
// variables leave the current values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Resolve layers the defaults, an optional preset, an optional YAML file
// and the environment, each overriding the one before. Command-line flags
// go on top of the result.
func Resolve(preset, path string) (*Config, error) {
	cfg := DefaultConfig()
	if preset != "" {
		cfg = GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, preset, ListPresets())
		}
	}
	if path != "" {
		var err error
		if cfg, err = Load(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
