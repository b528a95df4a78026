package tx

import (
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

var testHasher = crypto.SHA3Hasher{}

func newValidator() *Validator {
	return NewValidator(testHasher, crypto.Ed25519Verifier{})
}

func newKey(t *testing.T) *crypto.Ed25519Key {
	t.Helper()
	k, err := crypto.GenerateEd25519Key()
	if err != nil {
		t.Fatalf("GenerateEd25519Key: %v", err)
	}
	return k
}

func addrOf(k crypto.Signer) types.Address {
	return crypto.AddressFromPubKey(testHasher, k.PublicKey())
}

func p2pkh(k crypto.Signer) script.Script {
	return script.P2PKHLock(addrOf(k))
}

// fundedSpend builds a signed transfer spending one output per key, each
// holding asset, to a single output paying the sum to payee.
func fundedSpend(t *testing.T, asset types.Asset, payTo script.Script, keys ...*crypto.Ed25519Key) (*Transaction, Resolved) {
	t.Helper()
	resolved := make(Resolved)
	signers := make(map[types.Address]crypto.Signer)
	owners := make(map[types.Outpoint]types.Address)

	b := NewBuilder()
	var total uint64
	for i, k := range keys {
		op := types.Outpoint{TxID: types.Hash{0xf0, byte(i + 1)}, Index: uint32(i)}
		resolved[op] = Output{Asset: asset, Lock: p2pkh(k)}
		signers[addrOf(k)] = k
		owners[op] = addrOf(k)
		b.AddInput(op)
		total += asset.Amount
	}
	out := asset
	out.Amount = total
	b.AddOutput(out, payTo)
	if err := b.SignMulti(testHasher, signers, owners); err != nil {
		t.Fatalf("SignMulti: %v", err)
	}
	return b.Build(), resolved
}
