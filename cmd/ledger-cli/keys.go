package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
)

// keyInfo is what keygen and address print for a secret.
type keyInfo struct {
	Scheme  string `json:"scheme"`
	Secret  string `json:"secret,omitempty"`
	PubKey  string `json:"pubkey"`
	Address string `json:"address"`
	Lock    string `json:"lock_script"`
}

func describeKey(e *env, secret []byte, showSecret bool) (*keyInfo, error) {
	scheme := e.cfg.Params.SignatureScheme
	signer, err := crypto.SignerFromSecret(scheme, secret)
	if err != nil {
		return nil, err
	}
	pub := signer.PublicKey()
	addr := crypto.AddressFromPubKey(e.ledger.Hasher(), pub)
	info := &keyInfo{
		Scheme:  scheme,
		PubKey:  hex.EncodeToString(pub),
		Address: addr.String(),
		Lock:    hex.EncodeToString(script.P2PKHLock(addr).Encode()),
	}
	if showSecret {
		info.Secret = hex.EncodeToString(secret)
	}
	return info, nil
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a secret key for the configured signature scheme",
		Action: func(c *cli.Context) error {
			e, err := openEnv(c, false)
			if err != nil {
				return err
			}
			secret := make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return fmt.Errorf("read random: %w", err)
			}
			info, err := describeKey(e, secret, true)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, info)
		},
	}
}

func addressCommand() *cli.Command {
	return &cli.Command{
		Name:      "address",
		Usage:     "Derive the public key and address of a hex secret",
		ArgsUsage: "<hex | @file | ->",
		Action: func(c *cli.Context) error {
			e, err := openEnv(c, false)
			if err != nil {
				return err
			}
			secret, err := readHexArg(c)
			if err != nil {
				return err
			}
			info, err := describeKey(e, secret, false)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, info)
		},
	}
}
