package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Structural and resolution errors.
var (
	ErrVersion           = errors.New("unsupported transaction version")
	ErrUnknownKind       = errors.New("unknown transaction kind")
	ErrNoInputs          = errors.New("transaction has no inputs")
	ErrNoOutputs         = errors.New("transaction has no outputs")
	ErrTooManyInputs     = errors.New("too many inputs")
	ErrTooManyOutputs    = errors.New("too many outputs")
	ErrDuplicateInput    = errors.New("duplicate input")
	ErrSelfReference     = errors.New("input spends the transaction's own output")
	ErrNullOutpoint      = errors.New("transfer input has the null outpoint")
	ErrGenesisInput      = errors.New("creation and coinbase transactions need exactly one null input")
	ErrZeroAmount        = errors.New("output amount is zero")
	ErrAmountTooLarge    = errors.New("output amount exceeds total supply")
	ErrInvalidAsset      = errors.New("malformed asset")
	ErrMissingGenesis    = errors.New("item has no genesis hash")
	ErrMetadataNotMinted = errors.New("metadata outside a creation output")
	ErrMetadataTooLarge  = errors.New("item metadata too large")
	ErrInvalidScript     = errors.New("invalid script")
	ErrInvalidDruid      = errors.New("malformed DRUID info")
	ErrMissingInput      = errors.New("input not in resolved outputs")
	ErrLocked            = errors.New("input is locked")
	ErrCoinbaseHeight    = errors.New("coinbase script height mismatch")
	ErrCreateHeight      = errors.New("creation script height mismatch")
)

// Balance errors.
var (
	ErrUnbalanced       = errors.New("inputs and outputs do not balance")
	ErrCreateToken      = errors.New("creation transaction outputs tokens")
	ErrCreateGenesis    = errors.New("minted item already carries a genesis hash")
	ErrIssuanceTooLarge = errors.New("item issuance exceeds limit")
	ErrCoinbaseItem     = errors.New("coinbase outputs items")
	ErrCoinbaseTooLarge = errors.New("coinbase exceeds the allowed reward")
)

// DRUID errors.
var (
	ErrDruidMismatch     = errors.New("transactions do not share a DRUID")
	ErrDruidParticipants = errors.New("leg count does not match participants")
	ErrDruidExpectation  = errors.New("DRUID expectation not met")
	ErrDruidDuplicateLeg = errors.New("DRUID leg given twice")
)

// StructuralError reports a transaction that is malformed in isolation or
// cannot be resolved. Input and Output locate the offending element, -1
// when the error concerns the whole transaction. Code is one of the
// sentinel errors above; Err optionally carries the underlying cause.
type StructuralError struct {
	Code   error
	Input  int
	Output int
	Err    error
}

func (e *StructuralError) Error() string {
	msg := e.Code.Error()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Input >= 0:
		return fmt.Sprintf("input %d: %s", e.Input, msg)
	case e.Output >= 0:
		return fmt.Sprintf("output %d: %s", e.Output, msg)
	default:
		return msg
	}
}

func (e *StructuralError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}

func txErr(code error) *StructuralError {
	return &StructuralError{Code: code, Input: -1, Output: -1}
}

func inputErr(i int, code error) *StructuralError {
	return &StructuralError{Code: code, Input: i, Output: -1}
}

func outputErr(i int, code error) *StructuralError {
	return &StructuralError{Code: code, Input: -1, Output: i}
}

// BalanceError reports value created or destroyed for one asset key.
type BalanceError struct {
	Key types.AssetKey
	In  uint64
	Out uint64
	Err error
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("%s: %v (in=%d out=%d)", e.Key, e.Err, e.In, e.Out)
}

func (e *BalanceError) Unwrap() error { return e.Err }

// ScriptFailure reports an input whose scripts did not accept. Err is a
// *script.Error or one of this package's sentinels.
type ScriptFailure struct {
	Input int
	Err   error
}

func (e *ScriptFailure) Error() string {
	return fmt.Sprintf("input %d: %v", e.Input, e.Err)
}

func (e *ScriptFailure) Unwrap() error { return e.Err }
