/*
Package cache stores rendered plan results keyed by a hash of their input.

PURPOSE:
  Simulation is deterministic, so identical requests can reuse an earlier
  response. The cache holds opaque bytes; callers decide the encoding.

IMPLEMENTATIONS:
  - Memory: in-process map with per-entry TTL
  - Redis:  shared across server instances
  - Nop:    always misses

USAGE:
  key := cache.Key("simulate", "en", string(planJSON))
  if raw, ok, _ := c.Get(ctx, key); ok {
      return raw
  }
  c.Set(ctx, key, raw, 10*time.Minute)
*/
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache is a byte cache with per-entry TTL. A zero TTL never expires.
// Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const keyPrefix = "payoff:"

// Key hashes its parts into a fixed-width cache key. Parts are length
// prefixed so ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(strconv.Itoa(len(p)))
		_, _ = h.WriteString(":")
		_, _ = h.WriteString(p)
	}
	return keyPrefix + strconv.FormatUint(h.Sum64(), 16)
}

// Nop always misses and ignores writes.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error { return nil }
