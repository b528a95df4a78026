package tx

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// tagInputsAddress separates input addresses from other hashed data.
const tagInputsAddress = 0x10

// InputsAddress identifies the set of inputs a transaction spends. DRUID
// expectations name the paying side of a trade by this value.
func InputsAddress(h crypto.Hasher, t *Transaction) types.Hash {
	w := wire.NewWriter(len(t.Inputs) * 36)
	for _, in := range t.Inputs {
		w.Outpoint(in.PrevOut)
	}
	return crypto.HashTagged(h, tagInputsAddress, w.Bytes())
}

// leg is one (from, to, asset) payment made by a DRUID transaction.
type leg []byte

func legKey(from types.Hash, to types.Address, a types.Asset) leg {
	w := wire.NewWriter(types.HashSize + types.AddressSize + assetSize(a))
	w.Hash(from)
	w.Fixed(to[:])
	writeAsset(w, a)
	return w.Bytes()
}

// legSet buckets legs by their xxhash so lookups compare few byte strings.
type legSet map[uint64][]leg

func (s legSet) add(l leg) {
	k := xxhash.Sum64(l)
	s[k] = append(s[k], l)
}

func (s legSet) has(l leg) bool {
	for _, c := range s[xxhash.Sum64(l)] {
		if bytes.Equal(c, l) {
			return true
		}
	}
	return false
}

// ValidateDruid checks that txs are the complete set of legs of one dual
// double-entry trade: they share a DRUID, they are distinct, their number
// matches the participant count, and every expectation any leg carries is paid by some
// leg. Each transaction should already have passed Validate.
func ValidateDruid(h crypto.Hasher, txs []*Transaction) error {
	if len(txs) == 0 || txs[0].Druid == nil {
		return ErrDruidMismatch
	}
	first := txs[0].Druid
	seen := make(map[types.Hash]int, len(txs))
	for i, t := range txs {
		if t.Druid == nil || t.Druid.Druid != first.Druid || t.Druid.Participants != first.Participants {
			return fmt.Errorf("transaction %d: %w", i, ErrDruidMismatch)
		}
		id := t.ID(h)
		if j, dup := seen[id]; dup {
			return fmt.Errorf("transactions %d and %d: %w", j, i, ErrDruidDuplicateLeg)
		}
		seen[id] = i
	}
	if uint64(len(txs)) != uint64(first.Participants) {
		return fmt.Errorf("%w: %d legs, %d participants", ErrDruidParticipants, len(txs), first.Participants)
	}

	paid := make(legSet)
	for _, t := range txs {
		from := InputsAddress(h, t)
		for _, out := range t.Outputs {
			to, ok := script.ExtractAddress(out.Lock)
			if !ok {
				continue
			}
			paid.add(legKey(from, to, out.Asset))
		}
	}

	for i, t := range txs {
		for j, e := range t.Druid.Expectations {
			if !paid.has(legKey(e.From, e.To, e.Asset)) {
				return fmt.Errorf("transaction %d expectation %d (%s to %s): %w",
					i, j, e.Asset, e.To, ErrDruidExpectation)
			}
		}
	}
	return nil
}
