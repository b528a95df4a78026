package wire

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Version1 is the only encoding version currently produced.
const Version1 byte = 0x01

// Writer accumulates an encoding. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded bytes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Version writes the encoding-version prefix.
func (w *Writer) Version() { w.buf = append(w.buf, Version1) }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) U64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

// Bool writes 0x01 or 0x00.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

// CompactSize writes n as a CompactSize.
func (w *Writer) CompactSize(n uint64) { w.buf = AppendCompactSize(w.buf, n) }

// Fixed writes b without a length prefix.
func (w *Writer) Fixed(b []byte) { w.buf = append(w.buf, b...) }

// VarBytes writes a CompactSize length followed by b.
func (w *Writer) VarBytes(b []byte) {
	w.CompactSize(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// Hash writes a 32-byte hash.
func (w *Writer) Hash(h types.Hash) { w.buf = append(w.buf, h[:]...) }

// Outpoint writes txid(32) | index(4).
func (w *Writer) Outpoint(o types.Outpoint) {
	w.Hash(o.TxID)
	w.U32(o.Index)
}
