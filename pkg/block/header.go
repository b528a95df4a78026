package block

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// HeaderSize is the encoded size of a header body.
const HeaderSize = 4 + 8 + 8 + types.HashSize + types.HashSize + 4 + 8

// Header contains block metadata. Bits and Nonce are carried opaquely for
// the consensus layer.
type Header struct {
	Version    uint32     `json:"version"`
	Height     uint64     `json:"height"`
	Timestamp  uint64     `json:"timestamp"`
	PrevHash   types.Hash `json:"prev_hash"`
	MerkleRoot types.Hash `json:"merkle_root"`
	Bits       uint32     `json:"bits"`
	Nonce      uint64     `json:"nonce"`
}

// Hash computes the block header hash.
func (h *Header) Hash(hasher crypto.Hasher) types.Hash {
	return hasher.Hash(h.Encode())
}

// EncodeTo appends the header body to w.
// Format: version(4) | height(8) | timestamp(8) | prev_hash(32) | merkle_root(32) | bits(4) | nonce(8)
func (h *Header) EncodeTo(w *wire.Writer) {
	w.U32(h.Version)
	w.U64(h.Height)
	w.U64(h.Timestamp)
	w.Hash(h.PrevHash)
	w.Hash(h.MerkleRoot)
	w.U32(h.Bits)
	w.U64(h.Nonce)
}

// Encode returns the canonical versioned encoding.
func (h *Header) Encode() []byte {
	w := wire.NewWriter(1 + HeaderSize)
	w.Version()
	h.EncodeTo(w)
	return w.Bytes()
}

// DecodeHeader parses a versioned header encoding.
func DecodeHeader(b []byte) (*Header, error) {
	r := wire.NewReader("header", b)
	if err := r.Version(); err != nil {
		return nil, err
	}
	h, err := DecodeHeaderFrom(r)
	if err != nil {
		return nil, err
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return h, nil
}

// DecodeHeaderFrom reads a header body from r.
func DecodeHeaderFrom(r *wire.Reader) (*Header, error) {
	h := &Header{}
	var err error
	if h.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if h.Height, err = r.U64(); err != nil {
		return nil, err
	}
	if h.Timestamp, err = r.U64(); err != nil {
		return nil, err
	}
	if h.PrevHash, err = r.Hash(); err != nil {
		return nil, err
	}
	if h.MerkleRoot, err = r.Hash(); err != nil {
		return nil, err
	}
	if h.Bits, err = r.U32(); err != nil {
		return nil, err
	}
	if h.Nonce, err = r.U64(); err != nil {
		return nil, err
	}
	return h, nil
}
