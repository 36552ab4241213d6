package runtimeconfig

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable read by LoadEnv.
const EnvPrefix = "CMS_"

// LoadEnv overlays CMS_* environment variables on top of cfg and validates the
// result. Variables that are not set leave the corresponding field untouched.
func LoadEnv(cfg Config) (Config, error) {
	return load(cfg, env.Options{Prefix: EnvPrefix})
}

// LoadEnvFrom behaves like LoadEnv but reads from the supplied map instead of
// the process environment.
func LoadEnvFrom(cfg Config, environ map[string]string) (Config, error) {
	return load(cfg, env.Options{Prefix: EnvPrefix, Environment: environ})
}

func load(cfg Config, opts env.Options) (Config, error) {
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("cms config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
