// Package wire implements the canonical binary encoding shared by every
// ledger entity: little-endian integers, CompactSize lengths with minimal
// encoding enforced, and a leading encoding-version byte on top-level values.
package wire

import "encoding/binary"

// AppendCompactSize appends the CompactSize encoding of n to buf.
func AppendCompactSize(buf []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(buf, byte(n))
	case n <= 0xffff:
		buf = append(buf, 0xfd)
		return binary.LittleEndian.AppendUint16(buf, uint16(n))
	case n <= 0xffffffff:
		buf = append(buf, 0xfe)
		return binary.LittleEndian.AppendUint32(buf, uint32(n))
	default:
		buf = append(buf, 0xff)
		return binary.LittleEndian.AppendUint64(buf, n)
	}
}

// CompactSizeLen returns the encoded length of n.
func CompactSizeLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// DecodeCompactSize reads a CompactSize from the front of b and returns the
// value and the number of bytes consumed. Non-minimal encodings are rejected.
func DecodeCompactSize(b []byte) (uint64, int, error) {
	if len(b) < 1 {
		return 0, 0, ErrUnexpectedEOF
	}
	switch tag := b[0]; {
	case tag < 0xfd:
		return uint64(tag), 1, nil
	case tag == 0xfd:
		if len(b) < 3 {
			return 0, 0, ErrUnexpectedEOF
		}
		n := uint64(binary.LittleEndian.Uint16(b[1:3]))
		if n < 0xfd {
			return 0, 0, ErrNonMinimal
		}
		return n, 3, nil
	case tag == 0xfe:
		if len(b) < 5 {
			return 0, 0, ErrUnexpectedEOF
		}
		n := uint64(binary.LittleEndian.Uint32(b[1:5]))
		if n <= 0xffff {
			return 0, 0, ErrNonMinimal
		}
		return n, 5, nil
	default:
		if len(b) < 9 {
			return 0, 0, ErrUnexpectedEOF
		}
		n := binary.LittleEndian.Uint64(b[1:9])
		if n <= 0xffffffff {
			return 0, 0, ErrNonMinimal
		}
		return n, 9, nil
	}
}
