package tx

import (
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Env is the chain state a transaction is validated against.
type Env struct {
	Height    uint64 // Height of the block that would include the transaction
	Timestamp uint64 // Unix time of that block

	// MaxCoinbase bounds the total a coinbase may mint.
	MaxCoinbase uint64
}

// Validator checks transactions against resolved previous outputs. It is
// stateless and safe for concurrent use.
type Validator struct {
	hasher   crypto.Hasher
	verifier crypto.Verifier
}

// NewValidator returns a validator using the given primitives.
func NewValidator(h crypto.Hasher, v crypto.Verifier) *Validator {
	return &Validator{hasher: h, verifier: v}
}

// Hasher returns the hasher transaction IDs are computed with.
func (v *Validator) Hasher() crypto.Hasher { return v.hasher }

// Validate runs every check in order and stops at the first failure:
// structure, resolution, balance, then scripts. Balance failures are found
// without executing any script. The result depends only on t, resolved
// and env.
func (v *Validator) Validate(t *Transaction, resolved Resolved, env Env) error {
	if t == nil {
		return txErr(ErrNoInputs)
	}
	if err := t.CheckStructure(v.hasher); err != nil {
		return err
	}
	if err := v.checkResolved(t, resolved, env); err != nil {
		return err
	}
	if err := v.checkBalance(t, resolved, env); err != nil {
		return err
	}
	return v.checkScripts(t, resolved, env)
}

// checkResolved requires creation and coinbase scripts to commit to
// env.Height and checks every transfer input against resolved.
func (v *Validator) checkResolved(t *Transaction, resolved Resolved, env Env) error {
	switch t.Kind {
	case KindCoinbase:
		if h, _ := script.CoinbaseHeight(t.Inputs[0].Unlock); h != env.Height {
			return heightErr(ErrCoinbaseHeight, h, env.Height)
		}
		return nil
	case KindCreate:
		if h, _ := script.CreateHeight(t.Inputs[0].Unlock); h != env.Height {
			return heightErr(ErrCreateHeight, h, env.Height)
		}
		return nil
	}
	for i, in := range t.Inputs {
		out, ok := resolved[in.PrevOut]
		if !ok {
			return inputErr(i, ErrMissingInput)
		}
		if out.LockTime > env.Height {
			return &StructuralError{
				Code: ErrLocked, Input: i, Output: -1,
				Err: fmt.Errorf("locked until height %d", out.LockTime),
			}
		}
		if out.Asset.IsItem() && out.Asset.ID.IsZero() {
			return inputErr(i, ErrMissingGenesis)
		}
	}
	return nil
}

func heightErr(code error, script, block uint64) error {
	return &StructuralError{
		Code: code, Input: 0, Output: -1,
		Err: fmt.Errorf("script height %d, block height %d", script, block),
	}
}

func (v *Validator) checkBalance(t *Transaction, resolved Resolved, env Env) error {
	switch t.Kind {
	case KindCreate:
		return checkCreateBalance(t)
	case KindCoinbase:
		return checkCoinbaseBalance(t, env)
	}

	ins, err := resolved.InputAssets(t)
	if err != nil {
		return balanceOverflow(err)
	}
	outs, err := t.OutputAssets()
	if err != nil {
		return balanceOverflow(err)
	}
	for _, key := range ins.UnionKeys(outs) {
		if ins[key] != outs[key] {
			return &BalanceError{Key: key, In: ins[key], Out: outs[key], Err: ErrUnbalanced}
		}
	}
	return nil
}

// checkCreateBalance bounds the total minted across all outputs: every
// output of one creation shares the same genesis, so they are one item.
func checkCreateBalance(t *Transaction) error {
	var total uint64
	for _, out := range t.Outputs {
		a := out.Asset
		switch {
		case a.IsToken():
			return &BalanceError{Key: a.Key(), Out: a.Amount, Err: ErrCreateToken}
		case !a.ID.IsZero():
			return &BalanceError{Key: a.Key(), Out: a.Amount, Err: ErrCreateGenesis}
		}
		sum, ok := types.AddAmount(total, a.Amount)
		if !ok {
			sum = math.MaxUint64
		}
		if sum > config.MaxItemsPerCreate {
			return &BalanceError{Key: a.Key(), In: config.MaxItemsPerCreate, Out: sum, Err: ErrIssuanceTooLarge}
		}
		total = sum
	}
	return nil
}

func checkCoinbaseBalance(t *Transaction, env Env) error {
	limit := min(env.MaxCoinbase, config.TotalTokens)
	var total uint64
	for _, out := range t.Outputs {
		a := out.Asset
		if a.IsItem() {
			return &BalanceError{Key: a.Key(), Out: a.Amount, Err: ErrCoinbaseItem}
		}
		sum, ok := types.AddAmount(total, a.Amount)
		if !ok {
			return &BalanceError{Key: a.Key(), In: limit, Out: total, Err: types.ErrAmountOverflow}
		}
		total = sum
	}
	if total > limit {
		return &BalanceError{Key: types.AssetKey{Kind: types.AssetToken}, In: limit, Out: total, Err: ErrCoinbaseTooLarge}
	}
	return nil
}

// balanceOverflow converts an AssetValues overflow into a BalanceError.
func balanceOverflow(err error) error {
	return &BalanceError{Err: fmt.Errorf("%w: %v", types.ErrAmountOverflow, err)}
}

func (v *Validator) checkScripts(t *Transaction, resolved Resolved, env Env) error {
	ctx := &script.Context{
		SigHash:     t.SigHash(v.hasher),
		BlockHeight: env.Height,
		Timestamp:   env.Timestamp,
		Hasher:      v.hasher,
		Verifier:    v.verifier,
	}

	if t.Kind != KindTransfer {
		ctx.AllowCreate = t.Kind == KindCreate
		if _, err := script.Run(t.Inputs[0].Unlock, ctx); err != nil {
			return &ScriptFailure{Input: 0, Err: err}
		}
		return nil
	}

	for i, in := range t.Inputs {
		lock := resolved[in.PrevOut].Lock
		if _, err := script.Execute(in.Unlock, lock, ctx); err != nil {
			return &ScriptFailure{Input: i, Err: err}
		}
	}
	return nil
}
