package tx

import (
	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// CheckStructure checks the rules that need nothing but the transaction
// itself. It does not look at previous outputs or run scripts.
func (t *Transaction) CheckStructure(h crypto.Hasher) error {
	if t.Version == 0 || t.Version > config.MaxTxVersion {
		return txErr(ErrVersion)
	}
	if t.Kind > KindCoinbase {
		return txErr(ErrUnknownKind)
	}
	if len(t.Inputs) == 0 {
		return txErr(ErrNoInputs)
	}
	if len(t.Outputs) == 0 {
		return txErr(ErrNoOutputs)
	}
	if len(t.Inputs) > config.MaxTxInputs {
		return txErr(ErrTooManyInputs)
	}
	if len(t.Outputs) > config.MaxTxOutputs {
		return txErr(ErrTooManyOutputs)
	}

	if err := t.checkInputs(h); err != nil {
		return err
	}
	for i := range t.Outputs {
		if err := t.checkOutput(i); err != nil {
			return err
		}
	}
	if t.Druid != nil {
		if err := t.Druid.check(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transaction) checkInputs(h crypto.Hasher) error {
	if t.Kind != KindTransfer {
		if len(t.Inputs) != 1 || !t.Inputs[0].PrevOut.IsZero() {
			return txErr(ErrGenesisInput)
		}
		unlock := t.Inputs[0].Unlock
		if err := unlock.Validate(); err != nil {
			return &StructuralError{Code: ErrInvalidScript, Input: 0, Output: -1, Err: err}
		}
		shapeOK := script.IsCreate(unlock)
		if t.Kind == KindCoinbase {
			shapeOK = script.IsCoinbase(unlock)
		}
		if !shapeOK {
			return inputErr(0, ErrGenesisInput)
		}
		return nil
	}

	id := t.ID(h)
	seen := make(map[types.Outpoint]struct{}, len(t.Inputs))
	for i, in := range t.Inputs {
		if in.PrevOut.IsZero() {
			return inputErr(i, ErrNullOutpoint)
		}
		if in.PrevOut.TxID == id {
			return inputErr(i, ErrSelfReference)
		}
		if _, dup := seen[in.PrevOut]; dup {
			return inputErr(i, ErrDuplicateInput)
		}
		seen[in.PrevOut] = struct{}{}

		if err := in.Unlock.Validate(); err != nil {
			return &StructuralError{Code: ErrInvalidScript, Input: i, Output: -1, Err: err}
		}
		if !in.Unlock.IsPushOnly() {
			return &StructuralError{Code: ErrInvalidScript, Input: i, Output: -1, Err: script.ErrNotPushOnly}
		}
	}
	return nil
}

func (t *Transaction) checkOutput(i int) error {
	out := t.Outputs[i]
	a := out.Asset

	if a.Amount == 0 {
		return outputErr(i, ErrZeroAmount)
	}
	switch a.Kind {
	case types.AssetToken:
		if !a.ID.IsZero() || len(a.Metadata) > 0 {
			return outputErr(i, ErrInvalidAsset)
		}
		if a.Amount > config.TotalTokens {
			return outputErr(i, ErrAmountTooLarge)
		}
	case types.AssetItem:
		if len(a.Metadata) > config.MaxMetadataBytes {
			return outputErr(i, ErrMetadataTooLarge)
		}
		// Only freshly minted items lack a genesis hash or carry metadata.
		if t.Kind != KindCreate {
			if a.ID.IsZero() {
				return outputErr(i, ErrMissingGenesis)
			}
			if len(a.Metadata) > 0 {
				return outputErr(i, ErrMetadataNotMinted)
			}
		}
	default:
		return outputErr(i, ErrInvalidAsset)
	}

	if err := out.Lock.Validate(); err != nil {
		return &StructuralError{Code: ErrInvalidScript, Input: -1, Output: i, Err: err}
	}
	return nil
}

func (d *DruidInfo) check() error {
	switch {
	case len(d.Druid) == 0 || len(d.Druid) > config.MaxDruidSize:
		return txErr(ErrInvalidDruid)
	case d.Participants < 2 || d.Participants > config.MaxDruidParticipants:
		return txErr(ErrInvalidDruid)
	case len(d.Expectations) > config.MaxDruidExpectations:
		return txErr(ErrInvalidDruid)
	}
	return nil
}
