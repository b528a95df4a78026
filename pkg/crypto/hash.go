// Package crypto provides the hashing and signature primitives used by the ledger.
//
// Both the digest function and the signature scheme are pluggable: the
// validator and the Merkle tree only ever see a Hasher and a Verifier.
package crypto

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Hash algorithm names accepted by HasherByName.
const (
	HashSHA3   = "sha3-256"
	HashBLAKE3 = "blake3"
)

// Hasher produces a fixed-width 256-bit digest.
type Hasher interface {
	Hash(data []byte) types.Hash
	Name() string
}

// SHA3Hasher hashes with SHA3-256.
type SHA3Hasher struct{}

// Hash computes a SHA3-256 digest of data.
func (SHA3Hasher) Hash(data []byte) types.Hash {
	return sha3.Sum256(data)
}

// Name returns "sha3-256".
func (SHA3Hasher) Name() string { return HashSHA3 }

// BLAKE3Hasher hashes with BLAKE3-256.
type BLAKE3Hasher struct{}

// Hash computes a BLAKE3-256 digest of data.
func (BLAKE3Hasher) Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// Name returns "blake3".
func (BLAKE3Hasher) Name() string { return HashBLAKE3 }

// HasherByName returns the hasher registered under name.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case HashSHA3, "":
		return SHA3Hasher{}, nil
	case HashBLAKE3:
		return BLAKE3Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", name)
	}
}

// Sha3 computes a SHA3-256 digest regardless of the configured hasher.
func Sha3(data []byte) types.Hash {
	return sha3.Sum256(data)
}

// AddressFromPubKey derives an address from a public key: H(pubkey).
func AddressFromPubKey(h Hasher, pubKey []byte) types.Address {
	return types.Address(h.Hash(pubKey))
}

// HashTagged hashes a one-byte domain tag followed by the given parts.
func HashTagged(h Hasher, tag byte, parts ...[]byte) types.Hash {
	n := 1
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	buf = append(buf, tag)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return h.Hash(buf)
}
