package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/internal/utxo"
	"github.com/Klingon-tech/klingnet-ledger/pkg/ledger"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

var errProofInvalid = errors.New("proof does not verify")

// env bundles what a command needs once the config is loaded.
type env struct {
	cfg    *config.Config
	ledger *ledger.Ledger
	db     storage.DB
	store  *utxo.Store
}

func (e *env) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// openEnv loads the config and builds the ledger. When withStore is set it
// also opens the UTXO store, creating the data directory if needed.
func openEnv(c *cli.Context, withStore bool) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	l, err := ledger.New(cfg.Params)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, ledger: l}
	if !withStore {
		return e, nil
	}

	if cfg.Backend != config.BackendMemory {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := storage.Open(cfg.Backend, cfg.StorePath())
	if err != nil {
		return nil, err
	}
	log.Storage.Debug().Str("backend", cfg.Backend).Str("path", cfg.StorePath()).Msg("Store opened")
	e.db = db
	e.store = utxo.NewStore(db)
	return e, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readHexArg returns the hex payload given as the first argument, read from
// a file when prefixed with '@' or from stdin when '-'.
func readHexArg(c *cli.Context) ([]byte, error) {
	arg := c.Args().First()
	if arg == "" {
		return nil, fmt.Errorf("missing hex argument")
	}
	var text string
	switch {
	case arg == "-":
		b, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return nil, err
		}
		text = string(b)
	case strings.HasPrefix(arg, "@"):
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
		text = string(b)
	default:
		text = arg
	}
	data, err := hex.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return data, nil
}

func parseAddress(c *cli.Context) (types.Address, error) {
	if c.NArg() != 1 {
		return types.Address{}, fmt.Errorf("expected one address argument")
	}
	return types.HexToAddress(c.Args().First())
}

// =============================================================================
// Commands
// =============================================================================

func initConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-config",
		Usage: "Write a default config file into the data directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
		},
		Action: func(c *cli.Context) error {
			path := c.String(flagConfig)
			if path == "" {
				path = filepath.Join(c.String(flagDataDir), "ledger.conf")
			}
			if _, err := os.Stat(path); err == nil && !c.Bool("force") {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, path)
			return nil
		},
	}
}

func applyBlockCommand() *cli.Command {
	return &cli.Command{
		Name:      "apply-block",
		Usage:     "Validate a hex-encoded block against the store and apply it",
		ArgsUsage: "<hex | @file | ->",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "max-coinbase", Usage: "largest coinbase the block may mint", Value: config.TotalTokens},
			&cli.BoolFlag{Name: "no-verify", Usage: "apply without validating transactions"},
		},
		Action: func(c *cli.Context) error {
			data, err := readHexArg(c)
			if err != nil {
				return err
			}
			e, err := openEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			b, err := ledger.DecodeBlock(data)
			if err != nil {
				return err
			}
			h := e.ledger.Hasher()
			if err := b.Validate(h); err != nil {
				return fmt.Errorf("invalid block: %w", err)
			}

			var check utxo.Checker
			if !c.Bool("no-verify") {
				txEnv := tx.Env{
					Height:      b.Header.Height,
					Timestamp:   b.Header.Timestamp,
					MaxCoinbase: c.Uint64("max-coinbase"),
				}
				check = func(t *tx.Transaction, resolved tx.Resolved) error {
					return e.ledger.ValidateTransaction(t, resolved, txEnv)
				}
			}
			res, err := e.store.ApplyBlock(b, h, check)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, map[string]any{
				"hash":    b.Hash(h),
				"height":  res.Height,
				"created": res.Created,
				"spent":   res.Spent,
			})
		},
	}
}

func assetsCommand() *cli.Command {
	return &cli.Command{
		Name:      "assets",
		Usage:     "Sum the assets held by an address",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			addr, err := parseAddress(c)
			if err != nil {
				return err
			}
			e, err := openEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			vals, err := e.store.Assets(addr)
			if err != nil {
				return err
			}
			type row struct {
				Asset  string `json:"asset"`
				Amount uint64 `json:"amount"`
			}
			rows := []row{}
			for _, key := range vals.UnionKeys(nil) {
				rows = append(rows, row{Asset: key.String(), Amount: vals[key]})
			}
			return printJSON(c.App.Writer, rows)
		},
	}
}

func utxosCommand() *cli.Command {
	return &cli.Command{
		Name:      "utxos",
		Usage:     "List the unspent outputs paying an address",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			addr, err := parseAddress(c)
			if err != nil {
				return err
			}
			e, err := openEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			utxos, err := e.store.GetByAddress(addr)
			if err != nil {
				return err
			}
			if utxos == nil {
				utxos = []*utxo.UTXO{}
			}
			return printJSON(c.App.Writer, utxos)
		},
	}
}

func commitmentCommand() *cli.Command {
	return &cli.Command{
		Name:  "commitment",
		Usage: "Print the Merkle commitment over the whole UTXO set",
		Action: func(c *cli.Context) error {
			e, err := openEnv(c, true)
			if err != nil {
				return err
			}
			defer e.Close()

			done := log.Benchmark("utxo_commitment")
			root, err := utxo.Commitment(e.store, e.ledger.Hasher())
			done()
			if err != nil {
				return err
			}
			count, err := e.store.Count()
			if err != nil {
				return err
			}
			tip, _, err := e.store.Tip()
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, map[string]any{
				"root":  root,
				"utxos": count,
				"tip":   tip,
			})
		},
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a hex-encoded entity and print it as JSON",
		ArgsUsage: "<hex | @file | ->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "tx, output, block, header, script or proof",
				Value: "tx",
			},
		},
		Action: func(c *cli.Context) error {
			data, err := readHexArg(c)
			if err != nil {
				return err
			}
			e, err := openEnv(c, false)
			if err != nil {
				return err
			}
			h := e.ledger.Hasher()

			var v any
			switch kind := c.String("kind"); kind {
			case "tx":
				t, err := ledger.DecodeTransaction(data)
				if err != nil {
					return err
				}
				v = map[string]any{"id": t.ID(h), "tx": t}
			case "output":
				v, err = ledger.DecodeOutput(data)
			case "block":
				b, err := ledger.DecodeBlock(data)
				if err != nil {
					return err
				}
				v = map[string]any{"hash": b.Hash(h), "tx_ids": b.TxIDs(h), "block": b}
			case "header":
				hdr, err := ledger.DecodeHeader(data)
				if err != nil {
					return err
				}
				v = map[string]any{"hash": hdr.Hash(h), "header": hdr}
			case "script":
				v, err = ledger.DecodeScript(data)
			case "proof":
				v, err = ledger.DecodeMerkleProof(data)
			default:
				return fmt.Errorf("unknown kind %q", kind)
			}
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, v)
		},
	}
}

func verifyProofCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify-proof",
		Usage:     "Check that a hex-encoded Merkle proof places a transaction under a root",
		ArgsUsage: "<proof hex | @file | ->",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Usage: "block Merkle root (hex)", Required: true},
			&cli.StringFlag{Name: "txid", Usage: "transaction ID (hex)", Required: true},
		},
		Action: func(c *cli.Context) error {
			data, err := readHexArg(c)
			if err != nil {
				return err
			}
			root, err := types.HexToHash(c.String("root"))
			if err != nil {
				return fmt.Errorf("root: %w", err)
			}
			txID, err := types.HexToHash(c.String("txid"))
			if err != nil {
				return fmt.Errorf("txid: %w", err)
			}
			e, err := openEnv(c, false)
			if err != nil {
				return err
			}
			proof, err := ledger.DecodeMerkleProof(data)
			if err != nil {
				return err
			}

			ok := e.ledger.VerifyMerkleProof(root, txID, proof)
			if err := printJSON(c.App.Writer, map[string]any{"valid": ok}); err != nil {
				return err
			}
			if !ok {
				return errProofInvalid
			}
			return nil
		},
	}
}
