package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a builder for a transfer transaction.
func NewBuilder() *Builder {
	return &Builder{
		tx: &Transaction{Version: config.TxVersion, Kind: KindTransfer},
	}
}

// NewCreateBuilder creates a builder for an item creation transaction.
// Call SignCreate once the outputs are in place.
func NewCreateBuilder() *Builder {
	return &Builder{
		tx: &Transaction{
			Version: config.TxVersion,
			Kind:    KindCreate,
			Inputs:  []Input{{}},
		},
	}
}

// NewCoinbase returns a coinbase transaction paying amount to lock at height.
func NewCoinbase(height, amount uint64, lock script.Script) *Transaction {
	return &Transaction{
		Version: config.TxVersion,
		Kind:    KindCoinbase,
		Inputs:  []Input{{Unlock: script.CoinbaseScript(height)}},
		Outputs: []Output{{Asset: types.Token(amount), Lock: lock}},
	}
}

// AddInput adds an input referencing a previous output.
func (b *Builder) AddInput(prevOut types.Outpoint) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, Input{PrevOut: prevOut})
	return b
}

// AddOutput adds an output paying asset to lock.
func (b *Builder) AddOutput(asset types.Asset, lock script.Script) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Asset: asset, Lock: lock})
	return b
}

// AddLockedOutput adds an output that cannot be spent before height.
func (b *Builder) AddLockedOutput(asset types.Asset, lock script.Script, height uint64) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Asset: asset, Lock: lock, LockTime: height})
	return b
}

// SetDruid marks the transaction as one leg of a DRUID trade.
func (b *Builder) SetDruid(info DruidInfo) *Builder {
	b.tx.Druid = &info
	return b
}

// SetUnlock sets the unlocking script of input i directly, for scripts the
// Sign helpers do not cover.
func (b *Builder) SetUnlock(i int, unlock script.Script) *Builder {
	b.tx.Inputs[i].Unlock = unlock
	return b
}

// SigHash returns the hash signatures must cover. Unlocking scripts do not
// affect it, so it can be taken before signing.
func (b *Builder) SigHash(h crypto.Hasher) types.Hash {
	return b.tx.SigHash(h)
}

// Sign unlocks every input as P2PKH with the same key.
func (b *Builder) Sign(h crypto.Hasher, key crypto.Signer) error {
	hash := b.tx.SigHash(h)
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	unlock := script.P2PKHUnlock(sig, key.PublicKey())
	for i := range b.tx.Inputs {
		b.tx.Inputs[i].Unlock = unlock
	}
	return nil
}

// SignMulti unlocks each input as P2PKH with the key that owns its outpoint.
// outpointAddr maps each input's outpoint to the address that owns it.
// signers maps each address to the key that can spend from it.
func (b *Builder) SignMulti(
	h crypto.Hasher,
	signers map[types.Address]crypto.Signer,
	outpointAddr map[types.Outpoint]types.Address,
) error {
	hash := b.tx.SigHash(h)

	// The same key always signs the same hash, so sign once per address.
	cache := make(map[types.Address]script.Script)

	for i := range b.tx.Inputs {
		addr, ok := outpointAddr[b.tx.Inputs[i].PrevOut]
		if !ok {
			return fmt.Errorf("no address mapping for input %d outpoint", i)
		}
		key, ok := signers[addr]
		if !ok {
			return fmt.Errorf("no signer for address %s (input %d)", addr, i)
		}

		unlock, cached := cache[addr]
		if !cached {
			sig, err := key.Sign(hash[:])
			if err != nil {
				return fmt.Errorf("sign input %d: %w", i, err)
			}
			unlock = script.P2PKHUnlock(sig, key.PublicKey())
			cache[addr] = unlock
		}
		b.tx.Inputs[i].Unlock = unlock
	}
	return nil
}

// SignCreate fills in the creation script for height. The signature is
// stripped from the signing bytes, so it is computed over the final ID.
func (b *Builder) SignCreate(h crypto.Hasher, height uint64, key crypto.Signer) error {
	if b.tx.Kind != KindCreate {
		return fmt.Errorf("sign create: transaction kind is %s", b.tx.Kind)
	}
	pub := key.PublicKey()
	b.tx.Inputs[0].Unlock = script.CreateScript(height, make([]byte, crypto.SignatureSize), pub)
	hash := b.tx.SigHash(h)
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign create: %w", err)
	}
	b.tx.Inputs[0].Unlock = script.CreateScript(height, sig, pub)
	return nil
}

// Build returns the constructed transaction.
// Does NOT validate; use a Validator separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}
