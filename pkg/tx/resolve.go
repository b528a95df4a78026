package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Resolved maps each outpoint a transaction spends to the output it
// references. The locking script and asset of an input are always taken
// from here, never from the input itself.
type Resolved map[types.Outpoint]Output

// OutputSource provides read-only access to unspent outputs.
type OutputSource interface {
	HasOutput(op types.Outpoint) bool
	GetOutput(op types.Outpoint) (Output, error)
}

// Resolve looks up every outpoint t spends. Null outpoints of creation and
// coinbase inputs are skipped. A missing outpoint is a StructuralError with
// ErrMissingInput; storage failures are returned wrapped.
func Resolve(src OutputSource, t *Transaction) (Resolved, error) {
	resolved := make(Resolved, len(t.Inputs))
	for i, in := range t.Inputs {
		if in.PrevOut.IsZero() {
			continue
		}
		if !src.HasOutput(in.PrevOut) {
			return nil, &StructuralError{
				Code: ErrMissingInput, Input: i, Output: -1,
				Err: fmt.Errorf("outpoint %s", in.PrevOut),
			}
		}
		out, err := src.GetOutput(in.PrevOut)
		if err != nil {
			return nil, fmt.Errorf("input %d (%s): %w", i, in.PrevOut, err)
		}
		resolved[in.PrevOut] = out
	}
	return resolved, nil
}

// InputAssets sums the resolved outputs t spends per asset key.
func (r Resolved) InputAssets(t *Transaction) (types.AssetValues, error) {
	vals := make(types.AssetValues)
	for _, in := range t.Inputs {
		out, ok := r[in.PrevOut]
		if !ok {
			continue
		}
		if err := vals.Add(out.Asset); err != nil {
			return nil, err
		}
	}
	return vals, nil
}
