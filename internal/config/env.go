package config

import (
	"fmt"

	"github.com/VeganGarden/MyGarden-sub002/internal/engine/cache"
)

// Environment variables that override the config file.
const (
	EnvLogLevel  = "MENUCARBON_LOG_LEVEL"
	EnvLogFormat = "MENUCARBON_LOG_FORMAT"
	EnvDBPath    = "MENUCARBON_DB_PATH"
	EnvConfigTTL = "MENUCARBON_CONFIG_TTL"
	EnvFactorTTL = "MENUCARBON_FACTOR_TTL"
)

// ApplyEnv overlays MENUCARBON_* variables read through getenv onto cfg.
// TTL values accept integer seconds or Go durations.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := getenv(EnvDBPath); v != "" {
		cfg.Store.Path = v
	}
	if v := getenv(EnvConfigTTL); v != "" {
		ttl, err := cache.ParseTTL(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConfigTTL, err)
		}
		cfg.Cache.ConfigTTL = ttl
	}
	if v := getenv(EnvFactorTTL); v != "" {
		ttl, err := cache.ParseTTL(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFactorTTL, err)
		}
		cfg.Cache.FactorTTL = ttl
	}
	return nil
}
