package utxo

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

const reward = 50

type wallet struct {
	key  *crypto.Ed25519Key
	addr types.Address
	lock script.Script
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	k, err := crypto.GenerateEd25519Key()
	if err != nil {
		t.Fatalf("GenerateEd25519Key: %v", err)
	}
	addr := crypto.AddressFromPubKey(testHasher, k.PublicKey())
	return wallet{key: k, addr: addr, lock: script.P2PKHLock(addr)}
}

func checker(height uint64) Checker {
	v := tx.NewValidator(testHasher, crypto.Ed25519Verifier{})
	return func(t *tx.Transaction, resolved tx.Resolved) error {
		return v.Validate(t, resolved, tx.Env{Height: height, MaxCoinbase: reward})
	}
}

func sealAt(t *testing.T, height uint64, txs ...*tx.Transaction) *block.Block {
	t.Helper()
	b, err := block.Seal(block.Header{Version: 1, Height: height}, txs, testHasher)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return b
}

func apply(t *testing.T, s *Store, b *block.Block) *ApplyResult {
	t.Helper()
	res, err := s.ApplyBlock(b, testHasher, checker(b.Header.Height))
	if err != nil {
		t.Fatalf("ApplyBlock(%d): %v", b.Header.Height, err)
	}
	return res
}

func transfer(t *testing.T, from wallet, prev types.Outpoint, outs ...tx.Output) *tx.Transaction {
	t.Helper()
	b := tx.NewBuilder().AddInput(prev)
	for _, o := range outs {
		b.AddOutput(o.Asset, o.Lock)
	}
	if err := b.Sign(testHasher, from.key); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return b.Build()
}

func TestApplyBlock_Chain(t *testing.T) {
	s := testStore(t)
	alice, bob := newWallet(t), newWallet(t)

	cb1 := tx.NewCoinbase(1, reward, alice.lock)
	res := apply(t, s, sealAt(t, 1, cb1))
	if res.Created != 1 || res.Spent != 0 {
		t.Fatalf("block 1 result = %+v", res)
	}
	cbOut := types.Outpoint{TxID: cb1.ID(testHasher), Index: 0}
	if u, err := s.Get(cbOut); err != nil || !u.Coinbase || u.Height != 1 {
		t.Fatalf("coinbase UTXO = %+v, %v", u, err)
	}

	// Block 2 spends the coinbase and then spends its own change.
	pay := transfer(t, alice, cbOut,
		tx.Output{Asset: types.Token(30), Lock: bob.lock},
		tx.Output{Asset: types.Token(20), Lock: alice.lock})
	change := types.Outpoint{TxID: pay.ID(testHasher), Index: 1}
	sweep := transfer(t, alice, change, tx.Output{Asset: types.Token(20), Lock: bob.lock})

	res = apply(t, s, sealAt(t, 2, tx.NewCoinbase(2, reward, alice.lock), pay, sweep))
	if res.Spent != 1 || res.Created != 3 {
		t.Fatalf("block 2 result = %+v, want 1 spent 3 created", res)
	}
	if ok, _ := s.Has(cbOut); ok {
		t.Fatal("spent coinbase output still present")
	}
	if ok, _ := s.Has(change); ok {
		t.Fatal("change spent in the same block was stored")
	}

	bobAssets, err := s.Assets(bob.addr)
	if err != nil {
		t.Fatalf("Assets: %v", err)
	}
	if got := bobAssets[types.Token(0).Key()]; got != 50 {
		t.Fatalf("bob tokens = %d, want 50", got)
	}
	aliceAssets, _ := s.Assets(alice.addr)
	if got := aliceAssets[types.Token(0).Key()]; got != reward {
		t.Fatalf("alice tokens = %d, want %d", got, reward)
	}

	if tip, ok, err := s.Tip(); err != nil || !ok || tip != 2 {
		t.Fatalf("Tip() = %d, %v, %v; want 2", tip, ok, err)
	}
}

func TestApplyBlock_FixesItemGenesis(t *testing.T) {
	s := testStore(t)
	alice, bob := newWallet(t), newWallet(t)

	minted := types.Item(10, types.Hash{})
	minted.Metadata = []byte("deed #1")
	cb := tx.NewCreateBuilder().AddOutput(minted, alice.lock)
	if err := cb.SignCreate(testHasher, 1, alice.key); err != nil {
		t.Fatalf("SignCreate: %v", err)
	}
	create := cb.Build()
	genesis := create.ID(testHasher)

	apply(t, s, sealAt(t, 1, tx.NewCoinbase(1, reward, alice.lock), create))

	out := types.Outpoint{TxID: genesis, Index: 0}
	u, err := s.Get(out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Output.Asset.ID != genesis {
		t.Fatalf("stored genesis = %s, want %s", u.Output.Asset.ID, genesis)
	}
	if string(u.Output.Asset.Metadata) != "deed #1" {
		t.Fatalf("metadata = %q", u.Output.Asset.Metadata)
	}

	// The stored item can now be transferred under its genesis hash.
	give := transfer(t, alice, out, tx.Output{Asset: types.Item(10, genesis), Lock: bob.lock})
	apply(t, s, sealAt(t, 2, tx.NewCoinbase(2, reward, alice.lock), give))

	items, err := s.GetByItem(genesis)
	if err != nil || len(items) != 1 {
		t.Fatalf("GetByItem = %d, %v; want 1", len(items), err)
	}
	if addr, _ := script.ExtractAddress(items[0].Output.Lock); addr != bob.addr {
		t.Fatal("item not held by bob")
	}
}

func TestApplyBlock_AtomicOnFailure(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	alice, bob := newWallet(t), newWallet(t)

	cb1 := tx.NewCoinbase(1, reward, alice.lock)
	apply(t, s, sealAt(t, 1, cb1))
	before := db.Len()
	root, _ := Commitment(s, testHasher)

	cbOut := types.Outpoint{TxID: cb1.ID(testHasher), Index: 0}
	overspend := transfer(t, alice, cbOut, tx.Output{Asset: types.Token(reward + 1), Lock: bob.lock})
	_, err := s.ApplyBlock(sealAt(t, 2, tx.NewCoinbase(2, reward, alice.lock), overspend), testHasher, checker(2))
	if !errors.Is(err, tx.ErrUnbalanced) {
		t.Fatalf("ApplyBlock error = %v, want ErrUnbalanced", err)
	}

	if db.Len() != before {
		t.Fatalf("store changed after failed apply: %d keys, want %d", db.Len(), before)
	}
	if after, _ := Commitment(s, testHasher); after != root {
		t.Fatal("commitment changed after failed apply")
	}
	if tip, _, _ := s.Tip(); tip != 1 {
		t.Fatalf("tip = %d, want 1", tip)
	}
}

func TestApplyBlock_MissingInput(t *testing.T) {
	s := testStore(t)
	alice := newWallet(t)
	ghost := transfer(t, alice, types.Outpoint{TxID: types.Hash{0xde}, Index: 0},
		tx.Output{Asset: types.Token(1), Lock: alice.lock})

	_, err := s.ApplyBlock(sealAt(t, 1, tx.NewCoinbase(1, reward, alice.lock), ghost), testHasher, nil)
	if !errors.Is(err, tx.ErrMissingInput) {
		t.Fatalf("ApplyBlock error = %v, want ErrMissingInput", err)
	}
}

func TestApplyBlock_DoubleSpendInBlock(t *testing.T) {
	s := testStore(t)
	alice, bob := newWallet(t), newWallet(t)
	cb1 := tx.NewCoinbase(1, reward, alice.lock)
	apply(t, s, sealAt(t, 1, cb1))

	cbOut := types.Outpoint{TxID: cb1.ID(testHasher), Index: 0}
	first := transfer(t, alice, cbOut, tx.Output{Asset: types.Token(reward), Lock: bob.lock})
	second := transfer(t, alice, cbOut, tx.Output{Asset: types.Token(reward), Lock: alice.lock})

	b := &block.Block{
		Header:       &block.Header{Version: 1, Height: 2},
		Transactions: []*tx.Transaction{first, second},
	}
	_, err := s.ApplyBlock(b, testHasher, nil)
	if !errors.Is(err, tx.ErrMissingInput) {
		t.Fatalf("ApplyBlock error = %v, want ErrMissingInput", err)
	}
}

func TestApplyBlock_Height(t *testing.T) {
	s := testStore(t)
	alice := newWallet(t)
	apply(t, s, sealAt(t, 5, tx.NewCoinbase(5, reward, alice.lock)))

	for _, h := range []uint64{5, 7} {
		_, err := s.ApplyBlock(sealAt(t, h, tx.NewCoinbase(h, reward, alice.lock)), testHasher, nil)
		if !errors.Is(err, ErrHeight) {
			t.Fatalf("height %d: error = %v, want ErrHeight", h, err)
		}
	}
	if _, err := s.ApplyBlock(&block.Block{}, testHasher, nil); !errors.Is(err, block.ErrNilHeader) {
		t.Fatalf("nil header: error = %v", err)
	}
}

func signedCreate(t *testing.T, height uint64, owner wallet, amount uint64) *tx.Transaction {
	t.Helper()
	cb := tx.NewCreateBuilder().AddOutput(types.Item(amount, types.Hash{}), owner.lock)
	if err := cb.SignCreate(testHasher, height, owner.key); err != nil {
		t.Fatalf("SignCreate: %v", err)
	}
	return cb.Build()
}

func itemSupply(t *testing.T, s *Store, genesis types.Hash) uint64 {
	t.Helper()
	items, err := s.GetByItem(genesis)
	if err != nil {
		t.Fatalf("GetByItem: %v", err)
	}
	var total uint64
	for _, u := range items {
		total += u.Output.Asset.Amount
	}
	return total
}

func TestApplyBlock_CreateReplayRejected(t *testing.T) {
	s := testStore(t)
	alice, bob := newWallet(t), newWallet(t)

	create := signedCreate(t, 1, alice, 10)
	genesis := create.ID(testHasher)
	apply(t, s, sealAt(t, 1, tx.NewCoinbase(1, reward, alice.lock), create))

	give := transfer(t, alice, types.Outpoint{TxID: genesis, Index: 0},
		tx.Output{Asset: types.Item(10, genesis), Lock: bob.lock})
	apply(t, s, sealAt(t, 2, tx.NewCoinbase(2, reward, alice.lock), give))

	_, err := s.ApplyBlock(sealAt(t, 3, tx.NewCoinbase(3, reward, alice.lock), create), testHasher, checker(3))
	if !errors.Is(err, tx.ErrCreateHeight) {
		t.Fatalf("ApplyBlock error = %v, want ErrCreateHeight", err)
	}
	if got := itemSupply(t, s, genesis); got != 10 {
		t.Fatalf("item supply = %d, want 10", got)
	}
	if tip, _, _ := s.Tip(); tip != 2 {
		t.Fatalf("tip = %d, want 2", tip)
	}
}

func TestApplyBlock_OutputExists(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	alice := newWallet(t)

	create := signedCreate(t, 1, alice, 10)
	apply(t, s, sealAt(t, 1, tx.NewCoinbase(1, reward, alice.lock), create))
	before := db.Len()

	_, err := s.ApplyBlock(sealAt(t, 2, tx.NewCoinbase(2, reward, alice.lock), create), testHasher, nil)
	if !errors.Is(err, ErrOutputExists) {
		t.Fatalf("ApplyBlock error = %v, want ErrOutputExists", err)
	}
	if db.Len() != before {
		t.Fatalf("store changed after failed apply: %d keys, want %d", db.Len(), before)
	}
	if got := itemSupply(t, s, create.ID(testHasher)); got != 10 {
		t.Fatalf("item supply = %d, want 10", got)
	}
}
