// Package utxo keeps the unspent output set on a storage.DB and feeds
// resolved inputs to transaction validation.
package utxo

import (
	"errors"

	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// ErrNotFound is returned for an outpoint that is not in the set.
var ErrNotFound = errors.New("utxo not found")

// UTXO is an unspent output and where it was created.
type UTXO struct {
	Outpoint types.Outpoint `json:"outpoint"`
	Output   tx.Output      `json:"output"`
	Height   uint64         `json:"height"`
	Coinbase bool           `json:"coinbase"`
}

// Set is the interface for UTXO storage.
type Set interface {
	Get(outpoint types.Outpoint) (*UTXO, error)
	Put(utxo *UTXO) error
	Delete(outpoint types.Outpoint) error
	Has(outpoint types.Outpoint) (bool, error)
}

// encode returns the stored form: height(8) | coinbase(1) | output.
// The outpoint is the key and is not repeated.
func (u *UTXO) encode() []byte {
	w := wire.NewWriter(1 + 8 + 1 + u.Output.EncodedSize())
	w.Version()
	w.U64(u.Height)
	w.Bool(u.Coinbase)
	u.Output.EncodeTo(w)
	return w.Bytes()
}

func decodeUTXO(op types.Outpoint, b []byte) (*UTXO, error) {
	r := wire.NewReader("utxo", b)
	if err := r.Version(); err != nil {
		return nil, err
	}
	u := &UTXO{Outpoint: op}
	var err error
	if u.Height, err = r.U64(); err != nil {
		return nil, err
	}
	if u.Coinbase, err = r.Bool(); err != nil {
		return nil, err
	}
	if u.Output, err = tx.DecodeOutputFrom(r); err != nil {
		return nil, err
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return u, nil
}
