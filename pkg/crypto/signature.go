package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

// Signature scheme names accepted by VerifierByName.
const (
	SchemeEd25519 = "ed25519"
	SchemeSchnorr = "schnorr"
)

// SignatureSize is the size of a signature under every supported scheme.
const SignatureSize = 64

// Public key sizes per scheme.
const (
	Ed25519PubKeySize = ed25519.PublicKeySize
	SchnorrPubKeySize = 33
)

// Signer signs messages with a private key.
type Signer interface {
	// Sign produces a 64-byte signature over msg.
	Sign(msg []byte) ([]byte, error)
	// PublicKey returns the serialized public key.
	PublicKey() []byte
}

// Verifier verifies signatures. Implementations must be safe for concurrent use.
type Verifier interface {
	// Verify checks a signature over msg against a serialized public key.
	// Returns false on any malformed input.
	Verify(msg, signature, publicKey []byte) bool
}

// VerifierByName returns the verifier for a signature scheme.
func VerifierByName(name string) (Verifier, error) {
	switch name {
	case SchemeEd25519, "":
		return Ed25519Verifier{}, nil
	case SchemeSchnorr:
		return SchnorrVerifier{}, nil
	default:
		return nil, fmt.Errorf("unknown signature scheme %q", name)
	}
}

// SignerFromSecret builds a signer for scheme from a 32-byte secret: an
// Ed25519 seed or a secp256k1 scalar.
func SignerFromSecret(scheme string, secret []byte) (Signer, error) {
	switch scheme {
	case SchemeEd25519, "":
		return Ed25519KeyFromSeed(secret)
	case SchemeSchnorr:
		return PrivateKeyFromBytes(secret)
	default:
		return nil, fmt.Errorf("unknown signature scheme %q", scheme)
	}
}

// =============================================================================
// Schnorr over secp256k1
// =============================================================================

// PrivateKey wraps a secp256k1 private key for Schnorr signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// Sign produces a Schnorr signature over a 32-byte message digest.
func (pk *PrivateKey) Sign(msg []byte) ([]byte, error) {
	if len(msg) != 32 {
		return nil, fmt.Errorf("message must be 32 bytes, got %d", len(msg))
	}
	sig, err := schnorr.Sign(pk.key, msg)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// SchnorrVerifier verifies Schnorr/secp256k1 signatures.
type SchnorrVerifier struct{}

// Verify checks a Schnorr signature against a 32-byte digest and a
// compressed public key.
func (SchnorrVerifier) Verify(msg, signature, publicKey []byte) bool {
	if len(msg) != 32 {
		return false
	}
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(msg, pubKey)
}

// =============================================================================
// Ed25519
// =============================================================================

// Ed25519Key signs with an Ed25519 private key.
type Ed25519Key struct {
	key ed25519.PrivateKey
}

// GenerateEd25519Key creates a new random Ed25519 key.
func GenerateEd25519Key() (*Ed25519Key, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &Ed25519Key{key: priv}, nil
}

// Ed25519KeyFromSeed derives a key from a 32-byte seed.
func Ed25519KeyFromSeed(seed []byte) (*Ed25519Key, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Ed25519Key{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// Sign produces a detached Ed25519 signature over msg.
func (k *Ed25519Key) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(k.key, msg), nil
}

// PublicKey returns the 32-byte public key.
func (k *Ed25519Key) PublicKey() []byte {
	pub := k.key.Public().(ed25519.PublicKey)
	out := make([]byte, len(pub))
	copy(out, pub)
	return out
}

// Ed25519Verifier verifies detached Ed25519 signatures.
type Ed25519Verifier struct{}

// Verify checks an Ed25519 signature.
func (Ed25519Verifier) Verify(msg, signature, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, msg, signature)
}
