package block

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Validation errors.
var (
	ErrNilHeader           = errors.New("block has nil header")
	ErrNilTransaction      = errors.New("nil transaction")
	ErrNoTransactions      = errors.New("block has no transactions")
	ErrDuplicateTx         = errors.New("duplicate transaction")
	ErrBadMerkleRoot       = errors.New("merkle root mismatch")
	ErrBadVersion          = errors.New("unsupported block version")
	ErrTooManyTxs          = errors.New("too many transactions in block")
	ErrBlockTooLarge       = errors.New("block too large")
	ErrDuplicateBlockInput = errors.New("duplicate input across transactions in block")
	ErrCoinbasePosition    = errors.New("coinbase must be the first transaction")
)

// Validate checks block structure and internal consistency: header
// version, limits, unique transaction IDs, the Merkle root, and each
// transaction's structure. It does NOT resolve inputs or run scripts.
func (b *Block) Validate(h crypto.Hasher) error {
	if b.Header == nil {
		return ErrNilHeader
	}
	if b.Header.Version < 1 || b.Header.Version > config.MaxBlockVersion {
		return fmt.Errorf("%w: got %d, want 1..%d", ErrBadVersion, b.Header.Version, config.MaxBlockVersion)
	}
	if len(b.Transactions) == 0 {
		return ErrNoTransactions
	}
	if len(b.Transactions) > config.MaxBlockTxs {
		return fmt.Errorf("%w: %d txs, max %d", ErrTooManyTxs, len(b.Transactions), config.MaxBlockTxs)
	}

	ids, err := txIDs(b.Transactions, h)
	if err != nil {
		return err
	}
	if size := b.EncodedSize(); size > config.MaxBlockSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrBlockTooLarge, size, config.MaxBlockSize)
	}

	if root := merkle.Root(ids, h); b.Header.MerkleRoot != root {
		return fmt.Errorf("%w: header=%s computed=%s", ErrBadMerkleRoot, b.Header.MerkleRoot, root)
	}

	for i, t := range b.Transactions {
		if t.IsCoinbase() && i != 0 {
			return fmt.Errorf("tx %d: %w", i, ErrCoinbasePosition)
		}
		if err := t.CheckStructure(h); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}

	// Per-tx duplicates are caught by CheckStructure above.
	allInputs := make(map[types.Outpoint]int)
	for i, t := range b.Transactions {
		for _, in := range t.Inputs {
			if in.PrevOut.IsZero() {
				continue
			}
			if prevTx, exists := allInputs[in.PrevOut]; exists {
				return fmt.Errorf("tx %d: %w: outpoint %s also spent in tx %d",
					i, ErrDuplicateBlockInput, in.PrevOut, prevTx)
			}
			allInputs[in.PrevOut] = i
		}
	}
	return nil
}
