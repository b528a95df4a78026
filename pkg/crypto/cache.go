package crypto

import (
	"encoding/binary"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// CachingVerifier remembers successful verifications so that a signature
// seen in the mempool is not verified again when its block arrives.
// Failures are never cached.
type CachingVerifier struct {
	inner Verifier
	cache *ttlcache.Cache[string, struct{}]
}

// NewCachingVerifier wraps inner with a bounded TTL cache.
// No janitor goroutine is started; expired entries are ignored on lookup
// and evicted by capacity.
func NewCachingVerifier(inner Verifier, capacity uint64, ttl time.Duration) *CachingVerifier {
	cache := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](ttl),
		ttlcache.WithCapacity[string, struct{}](capacity),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	return &CachingVerifier{inner: inner, cache: cache}
}

// Verify consults the cache before delegating to the wrapped verifier.
func (v *CachingVerifier) Verify(msg, signature, publicKey []byte) bool {
	key := cacheKey(msg, signature, publicKey)
	if v.cache.Has(key) {
		return true
	}
	if !v.inner.Verify(msg, signature, publicKey) {
		return false
	}
	v.cache.Set(key, struct{}{}, ttlcache.DefaultTTL)
	return true
}

// Len returns the number of cached verifications.
func (v *CachingVerifier) Len() int {
	return v.cache.Len()
}

// cacheKey length-prefixes every part so distinct triples never collide.
func cacheKey(msg, signature, publicKey []byte) string {
	buf := make([]byte, 0, len(msg)+len(signature)+len(publicKey)+3*binary.MaxVarintLen64)
	for _, p := range [][]byte{msg, signature, publicKey} {
		buf = binary.AppendUvarint(buf, uint64(len(p)))
		buf = append(buf, p...)
	}
	return string(buf)
}
