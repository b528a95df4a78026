// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol rules: constants in protocol.go, must match across consumers
//   - Local settings: Params and Config, can vary per installation
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Storage backends accepted by Config.Backend.
const (
	BackendBadger = "badger"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config holds the settings of a local ledger instance driven by the CLI.
type Config struct {
	DataDir string `conf:"datadir"`
	Backend string `conf:"backend"`

	// Validation primitives
	Params Params

	// Logging
	Log LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Backend: BackendBadger,
		Params:  DefaultParams(),
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultDataDir returns the default data directory for the current OS.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-ledger"
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetLedger")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "KlingnetLedger")
	default:
		return filepath.Join(home, ".klingnet-ledger")
	}
}

// StorePath returns the path of the UTXO store for the configured backend.
func (c *Config) StorePath() string {
	switch c.Backend {
	case BackendBolt:
		return filepath.Join(c.DataDir, "utxo.db")
	default:
		return filepath.Join(c.DataDir, "utxo")
	}
}

// ConfigFile returns the path of the configuration file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "ledger.conf")
}
