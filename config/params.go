package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
)

// Params selects the pluggable primitives used by validation.
// Every consumer validating the same chain must use the same hash algorithm
// and signature scheme; cache and worker settings are local.
type Params struct {
	HashAlgorithm   string        `conf:"params.hash"`
	SignatureScheme string        `conf:"params.signature"`
	SigCacheSize    uint64        `conf:"params.sigcache"`     // 0 disables the signature cache
	SigCacheTTL     time.Duration `conf:"params.sigcache_ttl"` // Lifetime of a cached verification
	Workers         int           `conf:"params.workers"`      // Parallel batch validation workers
}

// DefaultParams returns the primitives of the deployed network:
// SHA3-256 and Ed25519.
func DefaultParams() Params {
	return Params{
		HashAlgorithm:   crypto.HashSHA3,
		SignatureScheme: crypto.SchemeEd25519,
		SigCacheSize:    100_000,
		SigCacheTTL:     10 * time.Minute,
		Workers:         runtime.NumCPU(),
	}
}

// Validate checks that the named primitives exist and limits are sane.
func (p Params) Validate() error {
	if _, err := crypto.HasherByName(p.HashAlgorithm); err != nil {
		return fmt.Errorf("params.hash: %w", err)
	}
	if _, err := crypto.VerifierByName(p.SignatureScheme); err != nil {
		return fmt.Errorf("params.signature: %w", err)
	}
	if p.SigCacheSize > 0 && p.SigCacheTTL <= 0 {
		return fmt.Errorf("params.sigcache_ttl must be positive when the cache is enabled")
	}
	if p.Workers < 1 {
		return fmt.Errorf("params.workers must be at least 1")
	}
	return nil
}

// Hasher returns the configured hasher.
func (p Params) Hasher() (crypto.Hasher, error) {
	return crypto.HasherByName(p.HashAlgorithm)
}

// Verifier returns the configured verifier, wrapped in a cache when enabled.
func (p Params) Verifier() (crypto.Verifier, error) {
	v, err := crypto.VerifierByName(p.SignatureScheme)
	if err != nil {
		return nil, err
	}
	if p.SigCacheSize == 0 {
		return v, nil
	}
	return crypto.NewCachingVerifier(v, p.SigCacheSize, p.SigCacheTTL), nil
}
