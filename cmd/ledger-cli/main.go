// ledger-cli inspects and maintains a local UTXO store: it applies blocks,
// lists the assets held by an address, decodes ledger entities and checks
// Merkle membership proofs.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/internal/log"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Global flag names.
const (
	flagDataDir  = "datadir"
	flagConfig   = "config"
	flagBackend  = "backend"
	flagLogLevel = "log-level"
	flagJSON     = "json"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "ledger-cli",
		Usage: "Inspect and maintain a local klingnet ledger store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagDataDir, Usage: "data directory", Value: config.DefaultDataDir()},
			&cli.StringFlag{Name: flagConfig, Usage: "config file (default: <datadir>/ledger.conf)"},
			&cli.StringFlag{Name: flagBackend, Usage: "store backend: badger, bolt or memory"},
			&cli.StringFlag{Name: flagLogLevel, Usage: "log level: debug, info, warn or error"},
			&cli.BoolFlag{Name: flagJSON, Usage: "log as JSON even on a terminal"},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			initConfigCommand(),
			applyBlockCommand(),
			assetsCommand(),
			utxosCommand(),
			commitmentCommand(),
			decodeCommand(),
			verifyProofCommand(),
			keygenCommand(),
			addressCommand(),
		},
	}
}

// loadConfig merges defaults, the config file and command-line flags, in
// that order of precedence from lowest to highest.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	cfg.DataDir = c.String(flagDataDir)

	path := c.String(flagConfig)
	if path == "" {
		path = cfg.ConfigFile()
	}
	values, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := config.ApplyFileConfig(cfg, values); err != nil {
		return nil, err
	}

	if c.IsSet(flagDataDir) {
		cfg.DataDir = c.String(flagDataDir)
	}
	if v := c.String(flagBackend); v != "" {
		cfg.Backend = v
	}
	if v := c.String(flagLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if c.Bool(flagJSON) {
		cfg.Log.JSON = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogging sends logs to stderr, colored on a terminal and JSON
// otherwise.
func setupLogging(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	jsonOut := cfg.Log.JSON || !term.IsTerminal(int(os.Stderr.Fd()))
	return log.Init(c.App.ErrWriter, cfg.Log.Level, jsonOut, cfg.Log.File)
}
