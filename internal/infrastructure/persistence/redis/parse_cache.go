package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
	"github.com/alem-hub/timestamp-normalizer/pkg/circuitbreaker"
	"github.com/alem-hub/timestamp-normalizer/pkg/timestamp"
)

// parseEntryVersion is bumped whenever the parser's accepted formats change,
// so that entries written by an older build read as misses.
const parseEntryVersion = 1

// parseEntry is the JSON document stored per input.
type parseEntry struct {
	Version   int                  `json:"v"`
	Input     string               `json:"input"`
	Matched   bool                 `json:"matched"`
	Timestamp *timestamp.Timestamp `json:"timestamp,omitempty"`
}

// ParseCacheConfig configures a ParseCache.
type ParseCacheConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// ParseCache implements normalization.ResultCache. Every Redis call goes
// through a circuit breaker; while it is open calls fail immediately with
// shared.ErrCacheUnavailable.
type ParseCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	prefix  string
	ttl     time.Duration
}

var _ normalization.ResultCache = (*ParseCache)(nil)

// NewParseCache creates a ParseCache. A nil breaker gets NewParseCacheBreaker(nil).
func NewParseCache(cache *Cache, breaker *circuitbreaker.CircuitBreaker, cfg ParseCacheConfig) *ParseCache {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = PrefixParse
	}
	if cfg.TTL <= 0 {
		cfg.TTL = TTLParseResult
	}
	if breaker == nil {
		breaker = NewParseCacheBreaker(nil)
	}
	return &ParseCache{
		cache:   cache,
		breaker: breaker,
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.TTL,
	}
}

// Key returns the Redis key for input: the prefix followed by the hex
// BLAKE2b-256 digest of the raw bytes.
func (p *ParseCache) Key(input string) string {
	sum := blake2b.Sum256([]byte(input))
	return p.prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached result for input, or shared.ErrCacheMiss.
func (p *ParseCache) Get(ctx context.Context, input string) (normalization.Result, error) {
	var entry parseEntry
	err := p.guard(ctx, "Get", func(ctx context.Context) error {
		return p.cache.Get(ctx, p.Key(input), &entry)
	})
	if err != nil {
		return normalization.Result{}, err
	}
	return decodeEntry(input, entry)
}

// Set stores res for input.
func (p *ParseCache) Set(ctx context.Context, input string, res normalization.Result) error {
	entry := encodeEntry(input, res)
	return p.guard(ctx, "Set", func(ctx context.Context) error {
		return p.cache.Set(ctx, p.Key(input), entry, p.ttl)
	})
}

// guard runs fn through the breaker. Misses and undecodable entries do not
// count as failures.
func (p *ParseCache) guard(ctx context.Context, op string, fn func(context.Context) error) error {
	err := p.breaker.Execute(ctx, fn)
	switch {
	case err == nil:
		return nil
	case circuitbreaker.Rejected(err):
		return fmt.Errorf("%w: %w", shared.ErrCacheUnavailable, err)
	case errors.Is(err, shared.ErrCacheMiss), errors.Is(err, ErrCacheSerialization):
		return shared.ErrCacheMiss
	default:
		return shared.WrapError("cache", op, shared.ErrServiceUnavailable, "redis request failed", err)
	}
}

// NewParseCacheBreaker returns the breaker ParseCache expects: cache misses
// and undecodable entries are not failures.
func NewParseCacheBreaker(onStateChange func(name string, from, to circuitbreaker.State)) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.CacheBreaker(onStateChange, circuitbreaker.WithIsFailure(func(err error) bool {
		return !errors.Is(err, shared.ErrCacheMiss) && !errors.Is(err, ErrCacheSerialization)
	}))
}

func encodeEntry(input string, res normalization.Result) parseEntry {
	entry := parseEntry{Version: parseEntryVersion, Input: input, Matched: res.Matched}
	if res.Matched {
		ts := res.Timestamp
		entry.Timestamp = &ts
	}
	return entry
}

// decodeEntry rejects entries from another format version and digest
// collisions, reporting both as misses.
func decodeEntry(input string, entry parseEntry) (normalization.Result, error) {
	if entry.Version != parseEntryVersion || entry.Input != input {
		return normalization.Result{}, shared.ErrCacheMiss
	}
	if !entry.Matched {
		return normalization.Result{}, nil
	}
	if entry.Timestamp == nil {
		return normalization.Result{}, shared.ErrCacheMiss
	}
	return normalization.Result{Matched: true, Timestamp: *entry.Timestamp}, nil
}
