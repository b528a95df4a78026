// Package block defines blocks, sealing, and structural validation.
package block

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// Block is a header plus its ordered transactions.
type Block struct {
	Header       *Header           `json:"header"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// NewBlock creates a new block with the given header and transactions.
// The Merkle root is taken as given; use Seal to compute it.
func NewBlock(header *Header, txs []*tx.Transaction) *Block {
	return &Block{
		Header:       header,
		Transactions: txs,
	}
}

// Seal fixes hdr's Merkle root over the IDs of txs and returns the block.
// It rejects an empty transaction list and duplicate transaction IDs.
func Seal(hdr Header, txs []*tx.Transaction, h crypto.Hasher) (*Block, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}
	if len(txs) > config.MaxBlockTxs {
		return nil, fmt.Errorf("%w: %d txs, max %d", ErrTooManyTxs, len(txs), config.MaxBlockTxs)
	}
	ids, err := txIDs(txs, h)
	if err != nil {
		return nil, err
	}
	hdr.MerkleRoot = merkle.Root(ids, h)
	return NewBlock(&hdr, append([]*tx.Transaction(nil), txs...)), nil
}

// TxIDs returns the IDs of the block's transactions in order.
func (b *Block) TxIDs(h crypto.Hasher) []types.Hash {
	ids := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		ids[i] = t.ID(h)
	}
	return ids
}

// txIDs computes IDs and rejects nil entries and duplicates.
func txIDs(txs []*tx.Transaction, h crypto.Hasher) ([]types.Hash, error) {
	ids := make([]types.Hash, len(txs))
	seen := make(map[types.Hash]int, len(txs))
	for i, t := range txs {
		if t == nil {
			return nil, fmt.Errorf("tx %d: %w", i, ErrNilTransaction)
		}
		id := t.ID(h)
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("tx %d: %w: %s also at %d", i, ErrDuplicateTx, id, prev)
		}
		seen[id] = i
		ids[i] = id
	}
	return ids, nil
}

// Hash returns the block header hash.
func (b *Block) Hash(h crypto.Hasher) types.Hash {
	if b.Header == nil {
		return types.Hash{}
	}
	return b.Header.Hash(h)
}

// Prove returns a membership proof for the transaction at index.
func (b *Block) Prove(index int, h crypto.Hasher) (*merkle.Proof, error) {
	return merkle.Build(b.TxIDs(h), h).Prove(index)
}

// VerifyMembership reports whether proof shows txID is in the block whose
// header carries root.
func VerifyMembership(root, txID types.Hash, proof *merkle.Proof, h crypto.Hasher) bool {
	if proof == nil || proof.Leaf != txID {
		return false
	}
	return merkle.Verify(proof, root, h)
}

// =============================================================================
// Encoding
// =============================================================================

// Encoding: header | tx_count(compact) | tx...

// Encode returns the canonical versioned encoding.
func (b *Block) Encode() []byte {
	w := wire.NewWriter(b.EncodedSize())
	w.Version()
	hdr := b.Header
	if hdr == nil {
		hdr = &Header{}
	}
	hdr.EncodeTo(w)
	w.CompactSize(uint64(len(b.Transactions)))
	for _, t := range b.Transactions {
		t.EncodeTo(w)
	}
	return w.Bytes()
}

// EncodedSize returns the length of Encode's output.
func (b *Block) EncodedSize() int {
	n := 1 + HeaderSize + wire.CompactSizeLen(uint64(len(b.Transactions)))
	for _, t := range b.Transactions {
		n += t.EncodedSize() - 1
	}
	return n
}

// Decode parses a versioned block encoding.
func Decode(data []byte) (*Block, error) {
	r := wire.NewReader("block", data)
	if len(data) > config.MaxBlockSize {
		return nil, r.Fail(wire.ErrTooLarge)
	}
	if err := r.Version(); err != nil {
		return nil, err
	}
	hdr, err := DecodeHeaderFrom(r)
	if err != nil {
		return nil, err
	}
	n, err := r.CompactSize(config.MaxBlockTxs)
	if err != nil {
		return nil, err
	}
	b := &Block{Header: hdr}
	if n > 0 {
		b.Transactions = make([]*tx.Transaction, n)
	}
	for i := range b.Transactions {
		if b.Transactions[i], err = tx.DecodeFrom(r); err != nil {
			return nil, err
		}
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return b, nil
}
