package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

func TestCompactSize_Boundaries(t *testing.T) {
	tests := []struct {
		n    uint64
		size int
	}{
		{0, 1}, {0xfc, 1}, {0xfd, 3}, {0xffff, 3},
		{0x10000, 5}, {0xffffffff, 5}, {0x100000000, 9}, {^uint64(0), 9},
	}
	for _, tt := range tests {
		enc := AppendCompactSize(nil, tt.n)
		if len(enc) != tt.size || CompactSizeLen(tt.n) != tt.size {
			t.Errorf("n=%d: encoded length %d, want %d", tt.n, len(enc), tt.size)
		}
		got, used, err := DecodeCompactSize(enc)
		if err != nil {
			t.Fatalf("n=%d: %v", tt.n, err)
		}
		if got != tt.n || used != tt.size {
			t.Errorf("n=%d: decoded %d using %d bytes", tt.n, got, used)
		}
	}
}

func TestCompactSize_RejectsNonMinimal(t *testing.T) {
	cases := [][]byte{
		{0xfd, 0xfc, 0x00},
		{0xfe, 0xff, 0xff, 0x00, 0x00},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00},
	}
	for _, c := range cases {
		if _, _, err := DecodeCompactSize(c); !errors.Is(err, ErrNonMinimal) {
			t.Errorf("%x: expected ErrNonMinimal, got %v", c, err)
		}
	}
}

func TestCompactSize_Truncated(t *testing.T) {
	for _, c := range [][]byte{{}, {0xfd, 0x00}, {0xfe, 0, 0}, {0xff, 0}} {
		if _, _, err := DecodeCompactSize(c); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("%x: expected ErrUnexpectedEOF, got %v", c, err)
		}
	}
}

func TestReaderWriter_Values(t *testing.T) {
	w := NewWriter(64)
	w.Version()
	w.U8(7)
	w.U16(0x1234)
	w.U32(0xdeadbeef)
	w.U64(1 << 40)
	w.Bool(true)
	w.VarBytes([]byte("abc"))
	w.VarBytes(nil)
	w.Outpoint(types.Outpoint{TxID: types.Hash{0x09}, Index: 4})

	r := NewReader("test", w.Bytes())
	if err := r.Version(); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.U8(); v != 7 {
		t.Errorf("U8 = %d", v)
	}
	if v, _ := r.U16(); v != 0x1234 {
		t.Errorf("U16 = %x", v)
	}
	if v, _ := r.U32(); v != 0xdeadbeef {
		t.Errorf("U32 = %x", v)
	}
	if v, _ := r.U64(); v != 1<<40 {
		t.Errorf("U64 = %d", v)
	}
	if v, _ := r.Bool(); !v {
		t.Error("Bool = false")
	}
	if v, _ := r.VarBytes(10); !bytes.Equal(v, []byte("abc")) {
		t.Errorf("VarBytes = %q", v)
	}
	if v, _ := r.VarBytes(10); v != nil {
		t.Errorf("empty VarBytes = %v, want nil", v)
	}
	op, err := r.Outpoint()
	if err != nil {
		t.Fatal(err)
	}
	if op.TxID[0] != 0x09 || op.Index != 4 {
		t.Errorf("Outpoint = %v", op)
	}
	if err := r.Finish(); err != nil {
		t.Errorf("Finish: %v", err)
	}
}

func TestReader_Errors(t *testing.T) {
	var ce *CodecError

	r := NewReader("thing", []byte{0x02})
	err := r.Version()
	if !errors.Is(err, ErrVersion) || !errors.As(err, &ce) || ce.Entity != "thing" {
		t.Errorf("expected ErrVersion CodecError, got %v", err)
	}

	r = NewReader("thing", []byte{0x05, 'a'})
	if _, err := r.VarBytes(3); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}

	r = NewReader("thing", []byte{0x03, 'a'})
	if _, err := r.VarBytes(10); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}

	r = NewReader("thing", []byte{0x02})
	if _, err := r.Bool(); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}

	r = NewReader("thing", []byte{0x00, 0x01})
	r.U8()
	if err := r.Finish(); !errors.Is(err, ErrTrailingBytes) {
		t.Errorf("expected ErrTrailingBytes, got %v", err)
	} else if errors.As(err, &ce) && ce.Offset != 1 {
		t.Errorf("offset = %d, want 1", ce.Offset)
	}
}
