package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

func testParams() config.Params {
	p := config.DefaultParams()
	p.Workers = 4
	return p
}

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(testParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func newKey(t *testing.T) *crypto.Ed25519Key {
	t.Helper()
	k, err := crypto.GenerateEd25519Key()
	if err != nil {
		t.Fatalf("GenerateEd25519Key: %v", err)
	}
	return k
}

// spendPair builds the transfer from the two-input scenario: two outputs of
// five tokens owned by different keys, paid as ten to payee.
func spendPair(t *testing.T, l *Ledger, payTokens uint64) (*tx.Transaction, tx.Resolved) {
	t.Helper()
	h := l.Hasher()
	k1, k2, payee := newKey(t), newKey(t), newKey(t)
	a1 := crypto.AddressFromPubKey(h, k1.PublicKey())
	a2 := crypto.AddressFromPubKey(h, k2.PublicKey())

	op1 := types.Outpoint{TxID: types.Hash{0x11}, Index: 0}
	op2 := types.Outpoint{TxID: types.Hash{0x22}, Index: 1}
	resolved := tx.Resolved{
		op1: {Asset: types.Token(5), Lock: script.P2PKHLock(a1)},
		op2: {Asset: types.Token(5), Lock: script.P2PKHLock(a2)},
	}

	b := tx.NewBuilder().
		AddInput(op1).
		AddInput(op2).
		AddOutput(types.Token(payTokens), script.P2PKHLock(crypto.AddressFromPubKey(h, payee.PublicKey())))
	err := b.SignMulti(h,
		map[types.Address]crypto.Signer{a1: k1, a2: k2},
		map[types.Outpoint]types.Address{op1: a1, op2: a2})
	if err != nil {
		t.Fatalf("SignMulti: %v", err)
	}
	return b.Build(), resolved
}

func TestNew_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Params)
	}{
		{"hash", func(p *config.Params) { p.HashAlgorithm = "md5" }},
		{"signature", func(p *config.Params) { p.SignatureScheme = "rsa" }},
		{"workers", func(p *config.Params) { p.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			if _, err := New(p); err == nil {
				t.Fatal("New accepted invalid params")
			}
		})
	}
}

func TestNew_SelectsPrimitives(t *testing.T) {
	p := testParams()
	p.HashAlgorithm = crypto.HashBLAKE3
	p.SigCacheSize = 0
	l, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Hasher().Name() != crypto.HashBLAKE3 {
		t.Fatalf("hasher = %s, want %s", l.Hasher().Name(), crypto.HashBLAKE3)
	}
	if _, ok := l.Verifier().(crypto.Ed25519Verifier); !ok {
		t.Fatalf("verifier = %T, want crypto.Ed25519Verifier", l.Verifier())
	}

	if _, ok := newLedger(t).Verifier().(*crypto.CachingVerifier); !ok {
		t.Fatal("default params should enable the signature cache")
	}
}

func TestValidateTransaction_TwoInputTransfer(t *testing.T) {
	l := newLedger(t)
	txn, resolved := spendPair(t, l, 10)
	if err := l.ValidateTransaction(txn, resolved, tx.Env{Height: 1}); err != nil {
		t.Fatalf("ValidateTransaction: %v", err)
	}
}

func TestValidateTransaction_BadSecondSignature(t *testing.T) {
	l := newLedger(t)
	txn, resolved := spendPair(t, l, 10)

	entries := txn.Inputs[1].Unlock.Entries()
	entries[0].Data[0] ^= 0x01
	txn.Inputs[1].Unlock = script.New(entries...)

	err := l.ValidateTransaction(txn, resolved, tx.Env{Height: 1})
	var sf *tx.ScriptFailure
	if !errors.As(err, &sf) {
		t.Fatalf("error = %v, want *tx.ScriptFailure", err)
	}
	if sf.Input != 1 {
		t.Fatalf("failing input = %d, want 1", sf.Input)
	}
}

func TestValidateTransaction_Unbalanced(t *testing.T) {
	l := newLedger(t)
	txn, resolved := spendPair(t, l, 11)
	err := l.ValidateTransaction(txn, resolved, tx.Env{Height: 1})
	var be *tx.BalanceError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *tx.BalanceError", err)
	}
	if be.In != 10 || be.Out != 11 {
		t.Fatalf("balance in=%d out=%d, want 10/11", be.In, be.Out)
	}
}

func TestValidateBatch(t *testing.T) {
	l := newLedger(t)
	var txs []*tx.Transaction
	var sets []tx.Resolved
	for i := range 9 {
		pay := uint64(10)
		if i%3 == 2 {
			pay = 12
		}
		txn, resolved := spendPair(t, l, pay)
		txs = append(txs, txn)
		sets = append(sets, resolved)
	}

	results, err := l.ValidateBatch(context.Background(), txs, sets, tx.Env{Height: 1})
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}
	if len(results) != len(txs) {
		t.Fatalf("got %d results, want %d", len(results), len(txs))
	}
	for i, res := range results {
		if want := i%3 == 2; (res != nil) != want {
			t.Errorf("tx %d: result %v, want failure=%v", i, res, want)
		}
		if res != nil && !errors.Is(res, tx.ErrUnbalanced) {
			t.Errorf("tx %d: error %v, want ErrUnbalanced", i, res)
		}
	}
}

func TestValidateBatch_LengthMismatch(t *testing.T) {
	l := newLedger(t)
	_, err := l.ValidateBatch(context.Background(), make([]*tx.Transaction, 2), make([]tx.Resolved, 1), tx.Env{})
	if !errors.Is(err, ErrBatchSize) {
		t.Fatalf("error = %v, want ErrBatchSize", err)
	}
}

func TestValidateBatch_Canceled(t *testing.T) {
	l := newLedger(t)
	txn, resolved := spendPair(t, l, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.ValidateBatch(ctx, []*tx.Transaction{txn}, []tx.Resolved{resolved}, tx.Env{Height: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestValidateBatch_Empty(t *testing.T) {
	results, err := newLedger(t).ValidateBatch(context.Background(), nil, nil, tx.Env{})
	if err != nil || len(results) != 0 {
		t.Fatalf("ValidateBatch(empty) = %v, %v", results, err)
	}
}

func TestSealBlock_Membership(t *testing.T) {
	l := newLedger(t)
	payee := newKey(t)
	lock := script.P2PKHLock(crypto.AddressFromPubKey(l.Hasher(), payee.PublicKey()))

	txs := []*tx.Transaction{tx.NewCoinbase(3, 50, lock)}
	for range 4 {
		txn, _ := spendPair(t, l, 10)
		txs = append(txs, txn)
	}

	b, err := l.SealBlock(block.Header{Version: config.BlockVersion, Height: 3}, txs)
	if err != nil {
		t.Fatalf("SealBlock: %v", err)
	}
	if err := b.Validate(l.Hasher()); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ids := b.TxIDs(l.Hasher())
	if got := l.MerkleRoot(ids); got != b.Header.MerkleRoot {
		t.Fatalf("MerkleRoot = %s, header root %s", got, b.Header.MerkleRoot)
	}
	proof, err := l.BuildMerkleProof(ids, 3)
	if err != nil {
		t.Fatalf("BuildMerkleProof: %v", err)
	}
	if !l.VerifyMerkleProof(b.Header.MerkleRoot, ids[3], proof) {
		t.Fatal("proof did not verify")
	}

	decoded, err := DecodeMerkleProof(proof.Encode())
	if err != nil {
		t.Fatalf("DecodeMerkleProof: %v", err)
	}
	if !l.VerifyMerkleProof(b.Header.MerkleRoot, ids[3], decoded) {
		t.Fatal("decoded proof did not verify")
	}

	extra, _ := spendPair(t, l, 10)
	grown, err := l.SealBlock(*b.Header, append(txs, extra))
	if err != nil {
		t.Fatalf("SealBlock: %v", err)
	}
	if grown.Header.MerkleRoot == b.Header.MerkleRoot {
		t.Fatal("extra transaction did not change the root")
	}
	if l.VerifyMerkleProof(grown.Header.MerkleRoot, ids[3], proof) {
		t.Fatal("stale proof verified against the new root")
	}
}

func TestSealBlock_Rejects(t *testing.T) {
	l := newLedger(t)
	if _, err := l.SealBlock(block.Header{}, nil); !errors.Is(err, block.ErrNoTransactions) {
		t.Fatalf("error = %v, want ErrNoTransactions", err)
	}
	txn, _ := spendPair(t, l, 10)
	if _, err := l.SealBlock(block.Header{}, []*tx.Transaction{txn, txn}); !errors.Is(err, block.ErrDuplicateTx) {
		t.Fatalf("error = %v, want ErrDuplicateTx", err)
	}
}

func TestBuildMerkleProof_Empty(t *testing.T) {
	_, err := newLedger(t).BuildMerkleProof(nil, 0)
	if !errors.Is(err, merkle.ErrEmptyTree) {
		t.Fatalf("error = %v, want ErrEmptyTree", err)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	l := newLedger(t)
	txn, _ := spendPair(t, l, 10)

	got, err := DecodeTransaction(txn.Encode())
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if got.ID(l.Hasher()) != txn.ID(l.Hasher()) {
		t.Fatal("transaction ID changed across round trip")
	}

	out, err := DecodeOutput(txn.Outputs[0].Encode())
	if err != nil {
		t.Fatalf("DecodeOutput: %v", err)
	}
	if !out.Asset.Equal(txn.Outputs[0].Asset) {
		t.Fatalf("output asset = %v, want %v", out.Asset, txn.Outputs[0].Asset)
	}

	lock, err := DecodeScript(txn.Outputs[0].Lock.Encode())
	if err != nil {
		t.Fatalf("DecodeScript: %v", err)
	}
	if !script.IsP2PKH(lock) {
		t.Fatal("decoded lock is not P2PKH")
	}

	b, err := l.SealBlock(block.Header{Version: config.BlockVersion}, []*tx.Transaction{txn})
	if err != nil {
		t.Fatalf("SealBlock: %v", err)
	}
	if _, err := DecodeBlock(b.Encode()); err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	hdr, err := DecodeHeader(b.Header.Encode())
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.MerkleRoot != b.Header.MerkleRoot {
		t.Fatal("header root changed across round trip")
	}
}
