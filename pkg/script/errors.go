package script

import (
	"errors"
	"fmt"
)

// Script failures. Every failure is returned wrapped in *Error.
var (
	ErrStackUnderflow        = errors.New("stack underflow")
	ErrStackOverflow         = errors.New("stack size limit exceeded")
	ErrTypeMismatch          = errors.New("stack item has wrong type")
	ErrUnknownOpcode         = errors.New("unknown opcode")
	ErrReservedOpcode        = errors.New("reserved opcode")
	ErrUnknownKind           = errors.New("unknown entry kind")
	ErrScriptTooLarge        = errors.New("script exceeds size limit")
	ErrTooManyOps            = errors.New("script exceeds opcode limit")
	ErrItemTooLarge          = errors.New("stack item exceeds size limit")
	ErrBadPushLength         = errors.New("signature or public key has wrong length")
	ErrUnbalancedConditional = errors.New("unbalanced conditional")
	ErrDuplicateElse         = errors.New("duplicate OP_ELSE")
	ErrNotPushOnly           = errors.New("unlocking script must be push-only")
	ErrVerifyFailed          = errors.New("verify failed")
	ErrBurn                  = errors.New("output is burned")
	ErrOverflow              = errors.New("arithmetic overflow")
	ErrDivideByZero          = errors.New("division by zero")
	ErrIndexOutOfRange       = errors.New("index out of range")
	ErrSignatureCheck        = errors.New("signature check failed")
	ErrMultisigCount         = errors.New("invalid multisig key or signature count")
	ErrLockTime              = errors.New("lock time not reached")
	ErrCreateMisplaced       = errors.New("OP_CREATE outside a creation script")
	ErrInvalidRedeemScript   = errors.New("invalid redeem script")
	ErrEmptyStack            = errors.New("final stack is empty")
	ErrFinalStackSize        = errors.New("final stack must hold exactly one item")
	ErrFalseResult           = errors.New("final stack top is false")
)

// Error is an interpreter failure. Section names the script that was
// running ("unlock", "lock", "redeem" or "script"), Pos is the entry index
// within it, or -1 for checks made after the last entry.
type Error struct {
	Section string
	Pos     int
	Op      Opcode
	HasOp   bool
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Pos < 0:
		return fmt.Sprintf("script %s: %v", e.Section, e.Err)
	case e.HasOp:
		return fmt.Sprintf("script %s[%d] %s: %v", e.Section, e.Pos, e.Op, e.Err)
	default:
		return fmt.Sprintf("script %s[%d]: %v", e.Section, e.Pos, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
