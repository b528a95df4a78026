package utxo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Block application errors.
var (
	ErrHeight       = errors.New("block height does not extend tip")
	ErrOutputExists = errors.New("output already exists")
)

// Checker validates a transaction against its resolved inputs before it is
// applied. A nil Checker applies without validation.
type Checker func(t *tx.Transaction, resolved tx.Resolved) error

// ApplyResult summarizes an applied block.
type ApplyResult struct {
	Height  uint64
	Created int
	Spent   int
}

// ApplyBlock spends the inputs and stores the outputs of every transaction
// in b, in order, and advances the tip. Outputs created earlier in the block
// may be spent later in it. Items minted by a creation transaction are
// stored with that transaction's ID as their genesis hash. An output whose
// outpoint is still live fails with ErrOutputExists. Nothing is written
// unless every transaction resolves and passes check.
func (s *Store) ApplyBlock(b *block.Block, h crypto.Hasher, check Checker) (*ApplyResult, error) {
	if b == nil || b.Header == nil {
		return nil, block.ErrNilHeader
	}
	height := b.Header.Height
	tip, ok, err := s.Tip()
	if err != nil {
		return nil, err
	}
	if ok && height != tip+1 {
		return nil, fmt.Errorf("%w: height %d, tip %d", ErrHeight, height, tip)
	}

	v := newView(s)
	for i, t := range b.Transactions {
		resolved, err := tx.Resolve(v, t)
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
		if check != nil {
			if err := check(t, resolved); err != nil {
				return nil, fmt.Errorf("tx %d: %w", i, err)
			}
		}
		if err := v.apply(t, h, height); err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
	}

	batch := storage.NewBatch(s.db)
	for _, u := range v.spent {
		s.delete(batch, u)
	}
	for _, u := range v.created {
		s.put(batch, u)
	}
	batch.Put(keyTip, binary.BigEndian.AppendUint64(nil, height))
	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("apply block %d: %w", height, err)
	}

	res := &ApplyResult{Height: height, Created: len(v.created), Spent: len(v.spent)}
	s.logger.Info().
		Uint64("height", height).
		Int("txs", len(b.Transactions)).
		Int("created", res.Created).
		Int("spent", res.Spent).
		Msg("Block applied")
	return res, nil
}

// view layers a block's pending changes over the store.
type view struct {
	s       *Store
	created map[types.Outpoint]*UTXO
	spent   map[types.Outpoint]*UTXO
}

func newView(s *Store) *view {
	return &view{
		s:       s,
		created: make(map[types.Outpoint]*UTXO),
		spent:   make(map[types.Outpoint]*UTXO),
	}
}

func (v *view) get(op types.Outpoint) (*UTXO, error) {
	if _, gone := v.spent[op]; gone {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	if u, ok := v.created[op]; ok {
		return u, nil
	}
	return v.s.Get(op)
}

// live reports whether op is unspent in the store or in the block so far.
func (v *view) live(op types.Outpoint) (bool, error) {
	if _, ok := v.created[op]; ok {
		return true, nil
	}
	if _, gone := v.spent[op]; gone {
		return false, nil
	}
	return v.s.Has(op)
}

func (v *view) HasOutput(op types.Outpoint) bool {
	_, err := v.get(op)
	return err == nil
}

func (v *view) GetOutput(op types.Outpoint) (tx.Output, error) {
	u, err := v.get(op)
	if err != nil {
		return tx.Output{}, err
	}
	return u.Output, nil
}

func (v *view) apply(t *tx.Transaction, h crypto.Hasher, height uint64) error {
	for _, in := range t.Inputs {
		if in.PrevOut.IsZero() {
			continue
		}
		u, err := v.get(in.PrevOut)
		if err != nil {
			return err
		}
		if _, pending := v.created[in.PrevOut]; pending {
			delete(v.created, in.PrevOut)
			continue
		}
		v.spent[in.PrevOut] = u
	}

	id := t.ID(h)
	ops := t.Outpoints(id)
	for _, op := range ops {
		live, err := v.live(op)
		if err != nil {
			return err
		}
		if live {
			return fmt.Errorf("%w: %s", ErrOutputExists, op)
		}
	}
	for i, op := range ops {
		out := t.Outputs[i]
		if t.IsCreate() {
			out.Asset = out.Asset.FixGenesis(id)
		}
		v.created[op] = &UTXO{
			Outpoint: op,
			Output:   out,
			Height:   height,
			Coinbase: t.IsCoinbase(),
		}
	}
	return nil
}
