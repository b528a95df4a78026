package wire

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Reader decodes from an in-memory buffer. Every failure is returned as a
// *CodecError carrying the entity name and offset.
type Reader struct {
	entity string
	b      []byte
	off    int
}

// NewReader returns a Reader over b. entity names the value being decoded
// for error messages.
func NewReader(entity string, b []byte) *Reader {
	return &Reader{entity: entity, b: b}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.b) - r.off }

// Fail wraps err as a CodecError at the current offset.
func (r *Reader) Fail(err error) error {
	return &CodecError{Entity: r.entity, Offset: r.off, Err: err}
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.b)-r.off {
		return nil, r.Fail(ErrUnexpectedEOF)
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v, nil
}

// Version consumes the encoding-version prefix.
func (r *Reader) Version() error {
	v, err := r.U8()
	if err != nil {
		return err
	}
	if v != Version1 {
		r.off--
		return r.Fail(ErrVersion)
	}
	return nil
}

// Finish fails if unread bytes remain.
func (r *Reader) Finish() error {
	if r.off != len(r.b) {
		return r.Fail(ErrTrailingBytes)
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bool reads a byte that must be 0 or 1.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		r.off--
		return false, r.Fail(ErrInvalidValue)
	}
}

// CompactSize reads a minimally encoded CompactSize no larger than max.
func (r *Reader) CompactSize(max uint64) (uint64, error) {
	n, size, err := DecodeCompactSize(r.b[r.off:])
	if err != nil {
		return 0, r.Fail(err)
	}
	if n > max {
		return 0, r.Fail(ErrTooLarge)
	}
	r.off += size
	return n, nil
}

// Fixed reads exactly n bytes and returns a copy.
func (r *Reader) Fixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// VarBytes reads a length-prefixed byte string of at most max bytes.
// A zero length decodes to nil.
func (r *Reader) VarBytes(max int) ([]byte, error) {
	n, err := r.CompactSize(uint64(max))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.Fixed(int(n))
}

// Hash reads a 32-byte hash.
func (r *Reader) Hash() (types.Hash, error) {
	b, err := r.take(types.HashSize)
	if err != nil {
		return types.Hash{}, err
	}
	var h types.Hash
	copy(h[:], b)
	return h, nil
}

// Outpoint reads txid(32) | index(4).
func (r *Reader) Outpoint() (types.Outpoint, error) {
	id, err := r.Hash()
	if err != nil {
		return types.Outpoint{}, err
	}
	idx, err := r.U32()
	if err != nil {
		return types.Outpoint{}, err
	}
	return types.Outpoint{TxID: id, Index: idx}, nil
}
