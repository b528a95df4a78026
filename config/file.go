package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration values from a .conf file.
// A missing file yields an empty map.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file values to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
// Only local settings, NOT protocol rules.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "datadir":
		cfg.DataDir = value
	case "backend":
		cfg.Backend = strings.ToLower(value)

	// Validation primitives
	case "params.hash":
		cfg.Params.HashAlgorithm = strings.ToLower(value)
	case "params.signature":
		cfg.Params.SignatureScheme = strings.ToLower(value)
	case "params.sigcache":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Params.SigCacheSize = n
	case "params.sigcache_ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Params.SigCacheTTL = d
	case "params.workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Params.Workers = n

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# Klingnet Ledger Configuration
#
# This file contains LOCAL settings only.
# Protocol rules (script limits, supply, block limits) are compiled in and
# cannot be changed here.

# Data directory (default: ~/.klingnet-ledger)
# datadir = ~/.klingnet-ledger

# UTXO store backend: badger, bolt, or memory
backend = badger

# ============================================================================
# Validation primitives
# ============================================================================

# Must match the network being validated: sha3-256 or blake3
params.hash = sha3-256

# ed25519 or schnorr
params.signature = ed25519

# Verified-signature cache (0 disables)
params.sigcache = 100000
params.sigcache_ttl = 10m

# Parallel batch validation workers
# params.workers = 4

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
