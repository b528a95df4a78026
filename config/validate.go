package config

import "fmt"

// Validate checks the configuration for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Backend {
	case BackendBadger, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("backend must be %q, %q or %q", BackendBadger, BackendBolt, BackendMemory)
	}
	if cfg.Backend != BackendMemory && cfg.DataDir == "" {
		return fmt.Errorf("datadir is required for the %s backend", cfg.Backend)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return cfg.Params.Validate()
}
