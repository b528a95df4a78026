package script

import (
	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Context supplies everything a script may observe about its environment.
// The interpreter never reads anything else.
type Context struct {
	// SigHash is the message CHECKSIG verifies against: the signing hash
	// of the enclosing transaction, which excludes unlocking scripts.
	SigHash types.Hash

	// BlockHeight and Timestamp are the lock-time oracle.
	BlockHeight uint64
	Timestamp   uint64

	Hasher   crypto.Hasher
	Verifier crypto.Verifier

	// AllowCreate permits OP_CREATE as the first entry of a standalone script.
	AllowCreate bool
}

// Outcome is the result of a successful execution.
type Outcome struct {
	Result Entry // The single value left on the stack
	Steps  int   // Entries executed, skipped branches excluded
}

// Execute runs the unlocking script followed by the locking script on a
// shared stack. The unlocking script must be push-only. When the locking
// script is a pay-to-script-hash template, the last item pushed by the
// unlocking script is decoded as the redeem script and run against the
// remaining items.
func Execute(unlock, lock Script, ctx *Context) (*Outcome, error) {
	if err := unlock.validate("unlock"); err != nil {
		return nil, err
	}
	if err := lock.validate("lock"); err != nil {
		return nil, err
	}
	if !unlock.IsPushOnly() {
		return nil, &Error{Section: "unlock", Pos: -1, Err: ErrNotPushOnly}
	}

	vm := newVM(ctx)
	if err := vm.run("unlock", unlock); err != nil {
		return nil, err
	}

	_, isP2SH := P2SHHash(lock)
	var saved []Entry
	if isP2SH {
		saved = vm.stack.Items()
	}

	if err := vm.run("lock", lock); err != nil {
		return nil, err
	}
	if !isP2SH {
		return vm.finish("lock")
	}
	// The hash check leaves the redeem arguments below its result.
	top, err := vm.stack.peek(0)
	if err != nil {
		return nil, &Error{Section: "lock", Pos: -1, Err: ErrEmptyStack}
	}
	if !top.Truthy() {
		return nil, &Error{Section: "lock", Pos: -1, Err: ErrFalseResult}
	}
	return vm.runRedeem(saved)
}

// Run executes a standalone script, such as a creation or coinbase script.
func Run(s Script, ctx *Context) (*Outcome, error) {
	if err := s.validate("script"); err != nil {
		return nil, err
	}
	vm := newVM(ctx)
	if err := vm.run("script", s); err != nil {
		return nil, err
	}
	return vm.finish("script")
}

type vm struct {
	ctx   *Context
	stack Stack
	cond  condStack
	steps int

	section string
	pos     int
	op      Opcode
	isOp    bool
}

func newVM(ctx *Context) *vm {
	c := Context{}
	if ctx != nil {
		c = *ctx
	}
	if c.Hasher == nil {
		c.Hasher = crypto.SHA3Hasher{}
	}
	if c.Verifier == nil {
		c.Verifier = crypto.Ed25519Verifier{}
	}
	return &vm{ctx: &c, cond: newCondStack()}
}

func (v *vm) fail(err error) error {
	return &Error{Section: v.section, Pos: v.pos, Op: v.op, HasOp: v.isOp, Err: err}
}

// run executes s on the current stack. Conditionals must close within s.
func (v *vm) run(section string, s Script) error {
	v.section = section
	v.cond = newCondStack()
	for i, e := range s.entries {
		v.pos, v.op, v.isOp = i, e.Op, e.Kind == KindOp

		if e.Kind != KindOp {
			if !v.cond.allTrue() {
				continue
			}
			v.steps++
			if err := v.stack.push(e); err != nil {
				return v.fail(err)
			}
			continue
		}
		if !v.cond.allTrue() && !e.Op.IsConditional() {
			continue
		}
		v.steps++
		if err := v.step(e.Op, i); err != nil {
			return v.fail(err)
		}
	}
	if !v.cond.empty() {
		return &Error{Section: section, Pos: -1, Err: ErrUnbalancedConditional}
	}
	return nil
}

// finish applies the acceptance convention to the final stack.
func (v *vm) finish(section string) (*Outcome, error) {
	depth := v.stack.Depth()
	switch {
	case depth == 0:
		return nil, &Error{Section: section, Pos: -1, Err: ErrEmptyStack}
	case depth != config.FinalStackDepth:
		return nil, &Error{Section: section, Pos: -1, Err: ErrFinalStackSize}
	}
	top, _ := v.stack.peek(0)
	if !top.Truthy() {
		return nil, &Error{Section: section, Pos: -1, Err: ErrFalseResult}
	}
	return &Outcome{Result: top, Steps: v.steps}, nil
}

func (v *vm) runRedeem(saved []Entry) (*Outcome, error) {
	fail := func(err error) (*Outcome, error) {
		return nil, &Error{Section: "redeem", Pos: -1, Err: err}
	}
	if len(saved) == 0 {
		return fail(ErrEmptyStack)
	}
	last := saved[len(saved)-1]
	if last.Kind != KindBytes {
		return fail(ErrTypeMismatch)
	}
	redeem, err := Decode(last.Data)
	if err != nil {
		return fail(ErrInvalidRedeemScript)
	}
	if err := redeem.validate("redeem"); err != nil {
		return nil, err
	}

	v.stack = Stack{main: saved[:len(saved)-1]}
	if err := v.run("redeem", redeem); err != nil {
		return nil, err
	}
	return v.finish("redeem")
}

// step dispatches one opcode. pos is the entry index within the running script.
func (v *vm) step(op Opcode, pos int) error {
	if op.IsConstant() {
		return v.stack.push(Num(uint64(op)))
	}
	if op.IsReserved() {
		return ErrReservedOpcode
	}

	switch op {
	// Flow control
	case OpNop:
		return nil
	case OpIf, OpNotIf:
		return v.opIf(op == OpNotIf)
	case OpElse:
		return v.cond.toggle()
	case OpEndIf:
		return v.cond.pop()
	case OpVerify:
		return v.opVerify()
	case OpBurn:
		return ErrBurn

	// Stack
	case OpToAltStack:
		return v.stack.toAlt()
	case OpFromAltStack:
		return v.stack.fromAlt()
	case Op2Drop:
		return v.opDrop(2)
	case Op2Dup:
		return v.opCopy(2, 2)
	case Op3Dup:
		return v.opCopy(3, 3)
	case Op2Over:
		return v.opCopy(4, 2)
	case Op2Rot:
		return v.opMove(6, 2)
	case Op2Swap:
		return v.opMove(4, 2)
	case OpIfDup:
		return v.opIfDup()
	case OpDepth:
		return v.stack.push(Num(uint64(v.stack.Depth())))
	case OpDrop:
		return v.opDrop(1)
	case OpDup:
		return v.opCopy(1, 1)
	case OpNip:
		_, err := v.stack.remove(1)
		if err != nil {
			return ErrStackUnderflow
		}
		return nil
	case OpOver:
		return v.opCopy(2, 1)
	case OpPick:
		return v.opPickRoll(false)
	case OpRoll:
		return v.opPickRoll(true)
	case OpRot:
		return v.opMove(3, 1)
	case OpSwap:
		return v.opMove(2, 1)
	case OpTuck:
		return v.opTuck()

	// Splice
	case OpCat:
		return v.opCat()
	case OpSubstr:
		return v.opSubstr()
	case OpLeft:
		return v.opLeftRight(true)
	case OpRight:
		return v.opLeftRight(false)
	case OpSize:
		return v.opSize()

	// Bitwise logic
	case OpInvert:
		return v.unary(func(a uint64) (uint64, error) { return ^a, nil })
	case OpAnd:
		return v.binary(func(a, b uint64) (uint64, error) { return a & b, nil })
	case OpOr:
		return v.binary(func(a, b uint64) (uint64, error) { return a | b, nil })
	case OpXor:
		return v.binary(func(a, b uint64) (uint64, error) { return a ^ b, nil })
	case OpEqual:
		return v.opEqual(false)
	case OpEqualVerify:
		return v.opEqual(true)

	// Arithmetic
	case Op1Add, Op1Sub, Op2Mul, Op2Div, OpNot, Op0NotEqual:
		return v.unary(unaryOps[op])
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpLShift, OpRShift,
		OpBoolAnd, OpBoolOr, OpNumEqual, OpNumNotEqual,
		OpLessThan, OpGreaterThan, OpLessThanOrEqual, OpGreaterThanOrEqual,
		OpMin, OpMax:
		return v.binary(binaryOps[op])
	case OpNumEqualVerify:
		if err := v.binary(binaryOps[OpNumEqual]); err != nil {
			return err
		}
		return v.opVerify()
	case OpWithin:
		return v.opWithin()

	// Crypto
	case OpSha3:
		return v.opSha3()
	case OpHash256:
		return v.opHash256()
	case OpCheckSig:
		return v.opCheckSig(false)
	case OpCheckSigVerify:
		return v.opCheckSig(true)
	case OpCheckMultiSig:
		return v.opCheckMultiSig(false)
	case OpCheckMultiSigVerify:
		return v.opCheckMultiSig(true)

	// Creation and lock time
	case OpCreate:
		if !v.ctx.AllowCreate || pos != 0 || v.section != "script" {
			return ErrCreateMisplaced
		}
		return nil
	case OpCheckLockTimeVerify:
		return v.opCheckLockTime()

	default:
		return ErrUnknownOpcode
	}
}
