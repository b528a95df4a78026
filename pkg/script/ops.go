package script

import (
	"math"
	"math/bits"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
)

// =============================================================================
// Flow control
// =============================================================================

func (v *vm) opIf(negate bool) error {
	if !v.cond.allTrue() {
		v.cond.push(false)
		return nil
	}
	e, err := v.stack.pop()
	if err != nil {
		return err
	}
	v.cond.push(e.Truthy() != negate)
	return nil
}

func (v *vm) opVerify() error {
	e, err := v.stack.pop()
	if err != nil {
		return err
	}
	if !e.Truthy() {
		return ErrVerifyFailed
	}
	return nil
}

// =============================================================================
// Stack
// =============================================================================

func (v *vm) opDrop(n int) error {
	if err := v.stack.need(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		v.stack.pop()
	}
	return nil
}

// opCopy pushes copies of n items starting from the item `from` deep.
// OP_2OVER is opCopy(4, 2): [x1 x2 x3 x4] -> [x1 x2 x3 x4 x1 x2].
func (v *vm) opCopy(from, n int) error {
	if err := v.stack.need(from); err != nil {
		return err
	}
	start := len(v.stack.main) - from
	for i := 0; i < n; i++ {
		if err := v.stack.push(v.stack.main[start+i]); err != nil {
			return err
		}
	}
	return nil
}

// opMove moves n items starting from the item `from` deep to the top.
// OP_ROT is opMove(3, 1): [x1 x2 x3] -> [x2 x3 x1].
func (v *vm) opMove(from, n int) error {
	if err := v.stack.need(from); err != nil {
		return err
	}
	start := len(v.stack.main) - from
	moved := make([]Entry, n)
	copy(moved, v.stack.main[start:start+n])
	rest := v.stack.main[start+n:]
	copy(v.stack.main[start:], rest)
	copy(v.stack.main[start+len(rest):], moved)
	return nil
}

func (v *vm) opIfDup() error {
	top, err := v.stack.peek(0)
	if err != nil {
		return err
	}
	if top.Truthy() {
		return v.stack.push(top)
	}
	return nil
}

func (v *vm) opPickRoll(roll bool) error {
	n, err := v.stack.popNum()
	if err != nil {
		return err
	}
	if n >= uint64(v.stack.Depth()) {
		return ErrIndexOutOfRange
	}
	if !roll {
		e, _ := v.stack.peek(int(n))
		return v.stack.push(e)
	}
	e, err := v.stack.remove(int(n))
	if err != nil {
		return err
	}
	return v.stack.push(e)
}

// opTuck copies the top item below the second: [x1 x2] -> [x2 x1 x2].
func (v *vm) opTuck() error {
	if err := v.stack.need(2); err != nil {
		return err
	}
	top, _ := v.stack.peek(0)
	if err := v.stack.push(top); err != nil {
		return err
	}
	l := len(v.stack.main)
	v.stack.main[l-2], v.stack.main[l-3] = v.stack.main[l-3], top
	return nil
}

// =============================================================================
// Splice
// =============================================================================

func (v *vm) opCat() error {
	b, err := v.stack.popBytes()
	if err != nil {
		return err
	}
	a, err := v.stack.popBytes()
	if err != nil {
		return err
	}
	if len(a)+len(b) > config.MaxScriptItemSize {
		return ErrItemTooLarge
	}
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return v.stack.push(Entry{Kind: KindBytes, Data: out})
}

// opSubstr: [s start length] -> [s[start:start+length]].
func (v *vm) opSubstr() error {
	length, err := v.stack.popNum()
	if err != nil {
		return err
	}
	start, err := v.stack.popNum()
	if err != nil {
		return err
	}
	s, err := v.stack.popBytes()
	if err != nil {
		return err
	}
	if start > uint64(len(s)) || length > uint64(len(s))-start {
		return ErrIndexOutOfRange
	}
	return v.stack.push(Bytes(s[start : start+length]))
}

// opLeftRight keeps the first n bytes (left) or drops them (right).
// An n past the end keeps everything (left) or nothing (right).
func (v *vm) opLeftRight(left bool) error {
	n, err := v.stack.popNum()
	if err != nil {
		return err
	}
	s, err := v.stack.popBytes()
	if err != nil {
		return err
	}
	cut := uint64(len(s))
	if n < cut {
		cut = n
	}
	if left {
		return v.stack.push(Bytes(s[:cut]))
	}
	return v.stack.push(Bytes(s[cut:]))
}

func (v *vm) opSize() error {
	top, err := v.stack.peek(0)
	if err != nil {
		return err
	}
	if top.Kind != KindBytes {
		return ErrTypeMismatch
	}
	return v.stack.push(Num(uint64(len(top.Data))))
}

// =============================================================================
// Comparison and arithmetic
// =============================================================================

func (v *vm) opEqual(verify bool) error {
	b, err := v.stack.pop()
	if err != nil {
		return err
	}
	a, err := v.stack.pop()
	if err != nil {
		return err
	}
	eq := a.Equal(b)
	if verify {
		if !eq {
			return ErrVerifyFailed
		}
		return nil
	}
	return v.stack.pushBool(eq)
}

func (v *vm) unary(f func(a uint64) (uint64, error)) error {
	a, err := v.stack.popNum()
	if err != nil {
		return err
	}
	r, err := f(a)
	if err != nil {
		return err
	}
	return v.stack.push(Num(r))
}

// binary pops b (top) then a and pushes f(a, b).
func (v *vm) binary(f func(a, b uint64) (uint64, error)) error {
	b, err := v.stack.popNum()
	if err != nil {
		return err
	}
	a, err := v.stack.popNum()
	if err != nil {
		return err
	}
	r, err := f(a, b)
	if err != nil {
		return err
	}
	return v.stack.push(Num(r))
}

// opWithin: [x min max] -> [min <= x < max].
func (v *vm) opWithin() error {
	hi, err := v.stack.popNum()
	if err != nil {
		return err
	}
	lo, err := v.stack.popNum()
	if err != nil {
		return err
	}
	x, err := v.stack.popNum()
	if err != nil {
		return err
	}
	return v.stack.pushBool(x >= lo && x < hi)
}

func boolNum(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

var unaryOps = map[Opcode]func(a uint64) (uint64, error){
	Op1Add: func(a uint64) (uint64, error) {
		if a == math.MaxUint64 {
			return 0, ErrOverflow
		}
		return a + 1, nil
	},
	Op1Sub: func(a uint64) (uint64, error) {
		if a == 0 {
			return 0, ErrOverflow
		}
		return a - 1, nil
	},
	Op2Mul: func(a uint64) (uint64, error) {
		if a > math.MaxUint64/2 {
			return 0, ErrOverflow
		}
		return a * 2, nil
	},
	Op2Div:      func(a uint64) (uint64, error) { return a / 2, nil },
	OpNot:       func(a uint64) (uint64, error) { return boolNum(a == 0), nil },
	Op0NotEqual: func(a uint64) (uint64, error) { return boolNum(a != 0), nil },
}

var binaryOps = map[Opcode]func(a, b uint64) (uint64, error){
	OpAdd: func(a, b uint64) (uint64, error) {
		sum, carry := bits.Add64(a, b, 0)
		if carry != 0 {
			return 0, ErrOverflow
		}
		return sum, nil
	},
	OpSub: func(a, b uint64) (uint64, error) {
		diff, borrow := bits.Sub64(a, b, 0)
		if borrow != 0 {
			return 0, ErrOverflow
		}
		return diff, nil
	},
	OpMul: func(a, b uint64) (uint64, error) {
		hi, lo := bits.Mul64(a, b)
		if hi != 0 {
			return 0, ErrOverflow
		}
		return lo, nil
	},
	OpDiv: func(a, b uint64) (uint64, error) {
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	},
	OpMod: func(a, b uint64) (uint64, error) {
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a % b, nil
	},
	OpLShift: func(a, b uint64) (uint64, error) {
		if a == 0 {
			return 0, nil
		}
		if b >= 64 || a > math.MaxUint64>>b {
			return 0, ErrOverflow
		}
		return a << b, nil
	},
	OpRShift: func(a, b uint64) (uint64, error) {
		if b >= 64 {
			return 0, nil
		}
		return a >> b, nil
	},
	OpBoolAnd:            func(a, b uint64) (uint64, error) { return boolNum(a != 0 && b != 0), nil },
	OpBoolOr:             func(a, b uint64) (uint64, error) { return boolNum(a != 0 || b != 0), nil },
	OpNumEqual:           func(a, b uint64) (uint64, error) { return boolNum(a == b), nil },
	OpNumNotEqual:        func(a, b uint64) (uint64, error) { return boolNum(a != b), nil },
	OpLessThan:           func(a, b uint64) (uint64, error) { return boolNum(a < b), nil },
	OpGreaterThan:        func(a, b uint64) (uint64, error) { return boolNum(a > b), nil },
	OpLessThanOrEqual:    func(a, b uint64) (uint64, error) { return boolNum(a <= b), nil },
	OpGreaterThanOrEqual: func(a, b uint64) (uint64, error) { return boolNum(a >= b), nil },
	OpMin:                func(a, b uint64) (uint64, error) { return min(a, b), nil },
	OpMax:                func(a, b uint64) (uint64, error) { return max(a, b), nil },
}

// =============================================================================
// Crypto and lock time
// =============================================================================

// opSha3 replaces any data item with its SHA3-256 digest.
func (v *vm) opSha3() error {
	e, err := v.stack.pop()
	if err != nil {
		return err
	}
	if e.Kind == KindNum {
		return ErrTypeMismatch
	}
	h := crypto.Sha3(e.Data)
	return v.stack.push(Bytes(h[:]))
}

// opHash256 replaces a public key or byte string with its address.
func (v *vm) opHash256() error {
	e, err := v.stack.pop()
	if err != nil {
		return err
	}
	if e.Kind != KindPubKey && e.Kind != KindBytes {
		return ErrTypeMismatch
	}
	addr := crypto.AddressFromPubKey(v.ctx.Hasher, e.Data)
	return v.stack.push(Bytes(addr[:]))
}

func (v *vm) checkSig(sig, pub []byte) bool {
	return v.ctx.Verifier.Verify(v.ctx.SigHash[:], sig, pub)
}

// opCheckSig: [sig pubkey] -> [valid].
func (v *vm) opCheckSig(verify bool) error {
	pub, err := v.stack.popKind(KindPubKey)
	if err != nil {
		return err
	}
	sig, err := v.stack.popKind(KindSignature)
	if err != nil {
		return err
	}
	ok := v.checkSig(sig.Data, pub.Data)
	if verify {
		if !ok {
			return ErrSignatureCheck
		}
		return nil
	}
	return v.stack.pushBool(ok)
}

// opCheckMultiSig: [sig1..sigM M pub1..pubN N] -> [valid].
// Signatures must appear in the same order as their public keys and each
// key satisfies at most one signature.
func (v *vm) opCheckMultiSig(verify bool) error {
	n, err := v.stack.popNum()
	if err != nil {
		return err
	}
	if n == 0 || n > config.MaxPubKeysPerMultisig {
		return ErrMultisigCount
	}
	keys := make([][]byte, n)
	for i := int(n) - 1; i >= 0; i-- {
		e, err := v.stack.popKind(KindPubKey)
		if err != nil {
			return err
		}
		keys[i] = e.Data
	}

	m, err := v.stack.popNum()
	if err != nil {
		return err
	}
	if m == 0 || m > n {
		return ErrMultisigCount
	}
	sigs := make([][]byte, m)
	for i := int(m) - 1; i >= 0; i-- {
		e, err := v.stack.popKind(KindSignature)
		if err != nil {
			return err
		}
		sigs[i] = e.Data
	}

	ok := true
	k := 0
	for _, sig := range sigs {
		for k < len(keys) && !v.checkSig(sig, keys[k]) {
			k++
		}
		if k == len(keys) {
			ok = false
			break
		}
		k++
	}

	if verify {
		if !ok {
			return ErrSignatureCheck
		}
		return nil
	}
	return v.stack.pushBool(ok)
}

// opCheckLockTime leaves its operand on the stack.
func (v *vm) opCheckLockTime() error {
	top, err := v.stack.peek(0)
	if err != nil {
		return err
	}
	if top.Kind != KindNum {
		return ErrTypeMismatch
	}
	now := v.ctx.BlockHeight
	if top.Num >= config.LockTimeThreshold {
		now = v.ctx.Timestamp
	}
	if now < top.Num {
		return ErrLockTime
	}
	return nil
}
