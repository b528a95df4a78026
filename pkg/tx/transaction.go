// Package tx defines the transaction model, its canonical encoding, and
// validation against a set of resolved previous outputs.
package tx

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// Kind distinguishes ordinary transfers from the two transaction shapes
// that mint value out of nothing.
type Kind uint8

const (
	KindTransfer Kind = 0x00 // Spends existing outputs
	KindCreate   Kind = 0x01 // Mints new items
	KindCoinbase Kind = 0x02 // Mints the block reward
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindCreate:
		return "create"
	case KindCoinbase:
		return "coinbase"
	default:
		return "unknown"
	}
}

// Transaction moves assets from resolved inputs to new outputs.
type Transaction struct {
	Version uint32     `json:"version"`
	Kind    Kind       `json:"kind"`
	Inputs  []Input    `json:"inputs"`
	Outputs []Output   `json:"outputs"`
	Druid   *DruidInfo `json:"druid,omitempty"`
}

// Input references a previous output and carries the script that unlocks
// it. Creation and coinbase inputs reference the zero outpoint and carry a
// standalone script instead.
type Input struct {
	PrevOut types.Outpoint `json:"prevout"`
	Unlock  script.Script  `json:"unlock"`
}

// Output defines a new UTXO.
type Output struct {
	Asset types.Asset `json:"asset"`

	// LockTime is the block height before which the output cannot be spent.
	LockTime uint64 `json:"locktime,omitempty"`

	// DRSBlockHash optionally binds the output to a block, for outputs
	// created by receipt-based trades.
	DRSBlockHash types.Hash `json:"drs_block_hash,omitzero"`

	Lock script.Script `json:"lock"`
}

// DruidInfo marks one leg of a dual double-entry trade. Every leg of the
// trade carries the same DRUID and participant count, and the expectations
// the other legs must satisfy.
type DruidInfo struct {
	Druid        string        `json:"druid"`
	Participants uint32        `json:"participants"`
	Expectations []Expectation `json:"expectations"`
}

// Expectation is an output some leg of the trade must create: paying Asset
// to To, from inputs whose address is From.
type Expectation struct {
	From  types.Hash    `json:"from"`
	To    types.Address `json:"to"`
	Asset types.Asset   `json:"asset"`
}

// IsCreate reports whether the transaction mints items.
func (t *Transaction) IsCreate() bool { return t.Kind == KindCreate }

// IsCoinbase reports whether the transaction mints the block reward.
func (t *Transaction) IsCoinbase() bool { return t.Kind == KindCoinbase }

// ID returns the transaction ID: the hash of its signing bytes. Unlocking
// scripts are excluded, so the ID cannot be changed by re-signing.
func (t *Transaction) ID(h crypto.Hasher) types.Hash {
	return h.Hash(t.SigningBytes())
}

// SigningBytes returns the canonical encoding with every unlocking script
// blanked. Creation and coinbase inputs keep their standalone script minus
// signatures, which makes otherwise identical mints at different heights
// distinct.
func (t *Transaction) SigningBytes() []byte {
	w := wire.NewWriter(t.encodedSize(true) + 1)
	w.Version()
	t.encode(w, true)
	return w.Bytes()
}

// SigHash is the message every input's signature commits to.
func (t *Transaction) SigHash(h crypto.Hasher) types.Hash {
	return t.ID(h)
}

// OutputAssets returns the sum of all outputs per asset key.
func (t *Transaction) OutputAssets() (types.AssetValues, error) {
	vals := make(types.AssetValues)
	for _, out := range t.Outputs {
		if err := vals.Add(out.Asset); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

// Outpoints returns the outpoints created by the transaction with the
// given ID, in output order.
func (t *Transaction) Outpoints(id types.Hash) []types.Outpoint {
	ops := make([]types.Outpoint, len(t.Outputs))
	for i := range t.Outputs {
		ops[i] = types.Outpoint{TxID: id, Index: uint32(i)}
	}
	return ops
}
