package backtest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// CacheEntry is one cached run.
type CacheEntry struct {
	Result    *Result
	ExpiresAt time.Time
	seq       uint64
}

// ResultCache keeps finished runs in memory so that their ledgers can be
// fetched later and identical configurations are not refitted. Results are
// shared and must not be modified by callers.
//
// A nil *ResultCache is valid and caches nothing.
type ResultCache struct {
	mu         sync.RWMutex
	store      map[string]*CacheEntry
	ttl        time.Duration
	maxEntries int
	seq        uint64
}

// NewResultCache creates a cache. ttl <= 0 means one hour; maxEntries <= 0
// means 64.
func NewResultCache(ttl time.Duration, maxEntries int) *ResultCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &ResultCache{
		store:      make(map[string]*CacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get retrieves a cached result if available and not expired
func (c *ResultCache) Get(key string) (*Result, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Result, true
}

// Set stores a result, evicting expired entries and then the oldest ones
// when the cache is full.
func (c *ResultCache) Set(key string, r *Result) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.seq++
	c.store[key] = &CacheEntry{Result: r, ExpiresAt: now.Add(c.ttl), seq: c.seq}
	c.cleanup(now)
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries from the cache
func (c *ResultCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// cleanup must be called with mu held.
func (c *ResultCache) cleanup(now time.Time) {
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
	for len(c.store) > c.maxEntries {
		var oldest string
		var oldestSeq uint64
		for key, entry := range c.store {
			if oldest == "" || entry.seq < oldestSeq {
				oldest, oldestSeq = key, entry.seq
			}
		}
		delete(c.store, oldest)
	}
}

// RunKey creates a cache key from every setting that changes a run's output.
// The worker count is left out; fits are identical for any value.
func RunKey(cfg RunConfig) string {
	fp := cfg.Forest
	fp.Workers = 0
	keyStr := fmt.Sprintf("%s:%d:%g:%d:%+v",
		cfg.Model,
		cfg.TargetShift,
		cfg.TrainFraction,
		cfg.SplitSeed,
		fp,
	)

	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
