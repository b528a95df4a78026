// Package script implements ZScript: typed stack entries, the closed opcode
// set, static script checks, the interpreter, and standard script templates.
package script

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// Script is an immutable sequence of entries.
type Script struct {
	entries []Entry
}

// New builds a script from entries. Entry data is copied.
func New(entries ...Entry) Script {
	if len(entries) == 0 {
		return Script{}
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Data = clone(e.Data)
		out[i] = e
	}
	return Script{entries: out}
}

// Len returns the number of entries.
func (s Script) Len() int { return len(s.entries) }

// IsEmpty reports whether the script has no entries.
func (s Script) IsEmpty() bool { return len(s.entries) == 0 }

// At returns entry i. Data is shared with the script and must not be modified.
func (s Script) At(i int) Entry { return s.entries[i] }

// Entries returns a deep copy of the entries.
func (s Script) Entries() []Entry {
	return New(s.entries...).entries
}

// Equal reports whether two scripts have identical entries.
func (s Script) Equal(o Script) bool {
	if len(s.entries) != len(o.entries) {
		return false
	}
	for i := range s.entries {
		if !s.entries[i].Equal(o.entries[i]) {
			return false
		}
	}
	return true
}

// IsPushOnly reports whether every entry is a data push or constant.
func (s Script) IsPushOnly() bool {
	for _, e := range s.entries {
		if !e.IsPush() {
			return false
		}
	}
	return true
}

// OpCount returns the number of opcode entries.
func (s Script) OpCount() int {
	n := 0
	for _, e := range s.entries {
		if e.Kind == KindOp {
			n++
		}
	}
	return n
}

// WithoutSignatures returns a copy with every signature push removed.
// Used to commit to standalone scripts without a circular dependency on
// the signature itself.
func (s Script) WithoutSignatures() Script {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Kind != KindSignature {
			out = append(out, e)
		}
	}
	return New(out...)
}

// String returns the space-separated disassembly.
func (s Script) String() string {
	parts := make([]string, len(s.entries))
	for i, e := range s.entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// Validate performs the static checks that do not need a stack: size and
// opcode limits, push shapes, known opcodes, and IF/ELSE/ENDIF balance.
// Errors are *Error values naming the offending entry.
func (s Script) Validate() error {
	return s.validate("script")
}

func (s Script) validate(section string) error {
	fail := func(pos int, e Entry, err error) error {
		return &Error{Section: section, Pos: pos, Op: e.Op, HasOp: e.Kind == KindOp, Err: err}
	}

	if s.EncodedSize() > config.MaxScriptSize {
		return &Error{Section: section, Pos: -1, Err: ErrScriptTooLarge}
	}
	if s.OpCount() > config.MaxScriptOps {
		return &Error{Section: section, Pos: -1, Err: ErrTooManyOps}
	}

	// Each open conditional records whether its ELSE has been seen.
	var open []bool
	for i, e := range s.entries {
		if err := checkEntry(e); err != nil {
			return fail(i, e, err)
		}
		if e.Kind != KindOp {
			continue
		}
		switch e.Op {
		case OpIf, OpNotIf:
			open = append(open, false)
		case OpElse:
			if len(open) == 0 {
				return fail(i, e, ErrUnbalancedConditional)
			}
			if open[len(open)-1] {
				return fail(i, e, ErrDuplicateElse)
			}
			open[len(open)-1] = true
		case OpEndIf:
			if len(open) == 0 {
				return fail(i, e, ErrUnbalancedConditional)
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) != 0 {
		return &Error{Section: section, Pos: -1, Err: ErrUnbalancedConditional}
	}
	return nil
}

// checkEntry validates a single entry's shape.
func checkEntry(e Entry) error {
	switch e.Kind {
	case KindOp:
		if !e.Op.Known() {
			return ErrUnknownOpcode
		}
	case KindNum:
	case KindBytes:
		if len(e.Data) > config.MaxScriptItemSize {
			return ErrItemTooLarge
		}
	case KindSignature:
		if len(e.Data) != crypto.SignatureSize {
			return ErrBadPushLength
		}
	case KindPubKey:
		if len(e.Data) != crypto.Ed25519PubKeySize && len(e.Data) != crypto.SchnorrPubKeySize {
			return ErrBadPushLength
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

// =============================================================================
// Encoding
// =============================================================================

// Encoding: count(compact) | entry...
// entry: kind(1) | op(1) | num(8) | len(compact) + data
// Each entry carries only the payload of its kind.

// EncodedSize returns the length of EncodeTo's output.
func (s Script) EncodedSize() int {
	n := wire.CompactSizeLen(uint64(len(s.entries)))
	for _, e := range s.entries {
		n++
		switch e.Kind {
		case KindOp:
			n++
		case KindNum:
			n += 8
		default:
			n += wire.CompactSizeLen(uint64(len(e.Data))) + len(e.Data)
		}
	}
	return n
}

// EncodeTo appends the script body (no version prefix) to w.
func (s Script) EncodeTo(w *wire.Writer) {
	w.CompactSize(uint64(len(s.entries)))
	for _, e := range s.entries {
		w.U8(uint8(e.Kind))
		switch e.Kind {
		case KindOp:
			w.U8(uint8(e.Op))
		case KindNum:
			w.U64(e.Num)
		default:
			w.VarBytes(e.Data)
		}
	}
}

// Encode returns the canonical versioned encoding.
func (s Script) Encode() []byte {
	w := wire.NewWriter(1 + s.EncodedSize())
	w.Version()
	s.EncodeTo(w)
	return w.Bytes()
}

// DecodeFrom reads a script body from r. Unknown opcodes decode
// successfully and are rejected by Validate; unknown kinds, oversize pushes
// and oversize scripts are codec errors.
func DecodeFrom(r *wire.Reader) (Script, error) {
	start := r.Offset()
	count, err := r.CompactSize(config.MaxScriptSize)
	if err != nil {
		return Script{}, err
	}
	if count == 0 {
		return Script{}, nil
	}
	entries := make([]Entry, 0, min(count, 256))
	for i := uint64(0); i < count; i++ {
		kind, err := r.U8()
		if err != nil {
			return Script{}, err
		}
		e := Entry{Kind: Kind(kind)}
		switch e.Kind {
		case KindOp:
			op, err := r.U8()
			if err != nil {
				return Script{}, err
			}
			e.Op = Opcode(op)
		case KindNum:
			if e.Num, err = r.U64(); err != nil {
				return Script{}, err
			}
		case KindBytes, KindSignature, KindPubKey:
			if e.Data, err = r.VarBytes(config.MaxScriptItemSize); err != nil {
				return Script{}, err
			}
		default:
			return Script{}, r.Fail(ErrUnknownKind)
		}
		if r.Offset()-start > config.MaxScriptSize {
			return Script{}, r.Fail(wire.ErrTooLarge)
		}
		entries = append(entries, e)
	}
	return Script{entries: entries}, nil
}

// Decode parses a versioned script encoding.
func Decode(b []byte) (Script, error) {
	r := wire.NewReader("script", b)
	if err := r.Version(); err != nil {
		return Script{}, err
	}
	s, err := DecodeFrom(r)
	if err != nil {
		return Script{}, err
	}
	if err := r.Finish(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// scriptJSON carries both the disassembly and the canonical encoding.
type scriptJSON struct {
	Asm string `json:"asm"`
	Hex string `json:"hex"`
}

// MarshalJSON encodes the script as its disassembly and hex encoding.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(scriptJSON{Asm: s.String(), Hex: hex.EncodeToString(s.Encode())})
}

// UnmarshalJSON decodes the hex field; the disassembly is ignored.
func (s *Script) UnmarshalJSON(data []byte) error {
	var j scriptJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	b, err := hex.DecodeString(j.Hex)
	if err != nil {
		return err
	}
	dec, err := Decode(b)
	if err != nil {
		return err
	}
	*s = dec
	return nil
}
