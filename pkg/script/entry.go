package script

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Kind tags a script entry. Stack values are never KindOp.
type Kind uint8

const (
	KindOp        Kind = 0x00
	KindNum       Kind = 0x01
	KindBytes     Kind = 0x02
	KindSignature Kind = 0x03
	KindPubKey    Kind = 0x04
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindOp:
		return "op"
	case KindNum:
		return "num"
	case KindBytes:
		return "bytes"
	case KindSignature:
		return "signature"
	case KindPubKey:
		return "pubkey"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Entry is one element of a script: an opcode or a typed data push.
// Values on the interpreter stack are entries of the push kinds.
type Entry struct {
	Kind Kind
	Op   Opcode // KindOp
	Num  uint64 // KindNum
	Data []byte // KindBytes, KindSignature, KindPubKey
}

// Op returns an opcode entry.
func Op(op Opcode) Entry { return Entry{Kind: KindOp, Op: op} }

// Num returns a numeric push.
func Num(n uint64) Entry { return Entry{Kind: KindNum, Num: n} }

// Bytes returns a byte-string push. The slice is copied.
func Bytes(b []byte) Entry { return Entry{Kind: KindBytes, Data: clone(b)} }

// Sig returns a signature push. The slice is copied.
func Sig(b []byte) Entry { return Entry{Kind: KindSignature, Data: clone(b)} }

// PubKey returns a public key push. The slice is copied.
func PubKey(b []byte) Entry { return Entry{Kind: KindPubKey, Data: clone(b)} }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// IsPush reports whether the entry is a data push or a constant opcode.
func (e Entry) IsPush() bool {
	return e.Kind != KindOp || e.Op.IsConstant()
}

// Truthy reports whether the value counts as true: Num(0) and empty Bytes
// are false, every other value is true.
func (e Entry) Truthy() bool {
	switch e.Kind {
	case KindNum:
		return e.Num != 0
	case KindBytes:
		return len(e.Data) > 0
	default:
		return true
	}
}

// Equal reports whether two entries have the same kind and value.
func (e Entry) Equal(o Entry) bool {
	if e.Kind != o.Kind {
		return false
	}
	switch e.Kind {
	case KindOp:
		return e.Op == o.Op
	case KindNum:
		return e.Num == o.Num
	default:
		return bytes.Equal(e.Data, o.Data)
	}
}

// String renders the entry the way script disassembly shows it.
func (e Entry) String() string {
	switch e.Kind {
	case KindOp:
		return e.Op.String()
	case KindNum:
		return fmt.Sprintf("%d", e.Num)
	case KindBytes:
		return "0x" + hex.EncodeToString(e.Data)
	case KindSignature:
		return "<sig:" + hex.EncodeToString(e.Data) + ">"
	case KindPubKey:
		return "<pubkey:" + hex.EncodeToString(e.Data) + ">"
	default:
		return e.Kind.String()
	}
}
