// Package cache stores language model responses so re-running an
// evaluation does not pay for the same completion twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped when the cached value layout changes
const keyPrefix = "ltlbench:v1:"

// CacheKey derives a key from the parts identifying one completion
// (provider, model, prompt, temperature, sample). Parts are length-prefixed
// so ("ab","c") and ("a","bc") never collide.
func CacheKey(parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
