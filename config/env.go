package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name read by FromEnv.
const EnvPrefix = "HWEBS_INFO_"

// FromEnv loads configuration from HWEBS_INFO_* environment variables.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}
