// Package ledger is the entry point for hosts embedding the validation
// core. A Ledger binds the configured hash and signature primitives to
// transaction validation, block sealing, and Merkle proofs.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// ErrBatchSize is returned when a batch's transactions and resolved sets
// differ in length.
var ErrBatchSize = errors.New("batch length mismatch")

// Ledger validates transactions and builds blocks with one set of
// primitives. It holds no chain state and is safe for concurrent use.
type Ledger struct {
	params    config.Params
	hasher    crypto.Hasher
	verifier  crypto.Verifier
	validator *tx.Validator
	logger    zerolog.Logger
}

// New returns a Ledger for p.
func New(p config.Params) (*Ledger, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	h, err := p.Hasher()
	if err != nil {
		return nil, err
	}
	v, err := p.Verifier()
	if err != nil {
		return nil, err
	}
	return NewWithPrimitives(p, h, v), nil
}

// NewWithPrimitives returns a Ledger using h and v directly. Only the
// worker count is taken from p.
func NewWithPrimitives(p config.Params, h crypto.Hasher, v crypto.Verifier) *Ledger {
	if p.Workers < 1 {
		p.Workers = 1
	}
	return &Ledger{
		params:    p,
		hasher:    h,
		verifier:  v,
		validator: tx.NewValidator(h, v),
		logger:    log.Ledger,
	}
}

// Hasher returns the hasher IDs, addresses and roots are computed with.
func (l *Ledger) Hasher() crypto.Hasher { return l.hasher }

// Verifier returns the signature verifier.
func (l *Ledger) Verifier() crypto.Verifier { return l.verifier }

// ValidateTransaction checks t against its resolved inputs and env.
// A nil error means t is valid.
func (l *Ledger) ValidateTransaction(t *tx.Transaction, resolved tx.Resolved, env tx.Env) error {
	err := l.validator.Validate(t, resolved, env)
	if err != nil && t != nil {
		l.logger.Debug().
			Str("tx", t.ID(l.hasher).String()).
			Stringer("kind", t.Kind).
			Err(err).
			Msg("Transaction rejected")
	}
	return err
}

// ValidateBatch validates independent transactions in parallel. resolved[i]
// holds the resolved inputs of txs[i]. The returned slice has one entry per
// transaction, nil where it is valid; the error is non-nil only when ctx
// ends before every transaction was checked.
func (l *Ledger) ValidateBatch(ctx context.Context, txs []*tx.Transaction, resolved []tx.Resolved, env tx.Env) ([]error, error) {
	if len(txs) != len(resolved) {
		return nil, fmt.Errorf("%w: %d transactions, %d resolved sets", ErrBatchSize, len(txs), len(resolved))
	}
	defer log.Benchmark("validate_batch")()

	results := make([]error, len(txs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.params.Workers)

	for i := range txs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = l.ValidateTransaction(txs[i], resolved[i], env)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validate batch: %w", err)
	}
	return results, nil
}

// ValidateTrade checks that the legs of a DRUID trade meet each other's
// expectations. Each leg must also pass ValidateTransaction on its own.
func (l *Ledger) ValidateTrade(legs []*tx.Transaction) error {
	if err := tx.ValidateDruid(l.hasher, legs); err != nil {
		l.logger.Debug().Int("legs", len(legs)).Err(err).Msg("Trade rejected")
		return err
	}
	return nil
}

// SealBlock fixes hdr's Merkle root over txs and returns the block.
func (l *Ledger) SealBlock(hdr block.Header, txs []*tx.Transaction) (*block.Block, error) {
	b, err := block.Seal(hdr, txs, l.hasher)
	if err != nil {
		return nil, err
	}
	l.logger.Debug().
		Uint64("height", b.Header.Height).
		Int("txs", len(b.Transactions)).
		Str("root", b.Header.MerkleRoot.String()).
		Msg("Block sealed")
	return b, nil
}

// BuildMerkleProof proves the membership of txIDs[index].
func (l *Ledger) BuildMerkleProof(txIDs []types.Hash, index int) (*merkle.Proof, error) {
	return merkle.Build(txIDs, l.hasher).Prove(index)
}

// VerifyMerkleProof reports whether proof shows txID under root.
func (l *Ledger) VerifyMerkleProof(root, txID types.Hash, proof *merkle.Proof) bool {
	return block.VerifyMembership(root, txID, proof, l.hasher)
}

// MerkleRoot returns the root over txIDs.
func (l *Ledger) MerkleRoot(txIDs []types.Hash) types.Hash {
	return merkle.Root(txIDs, l.hasher)
}
