// Package cache keeps recent optimization results in memory so their ledgers
// can be fetched after the run.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"battery-sizing/internal/model"
)

// Entry is one cached run.
type Entry struct {
	Result    *model.OptimizationResult
	Config    model.OptimizerConfig
	ExpiresAt time.Time
}

// ResultCache is an in-memory TTL cache of optimization results.
//
// It is for local development only: results hold the caller's load data and
// are never shared across processes. The API leaves it off in production.
type ResultCache struct {
	mu    sync.RWMutex
	store map[string]*Entry
	ttl   time.Duration
	now   func() time.Time
}

// New returns a cache whose entries live for ttl.
func New(ttl time.Duration) *ResultCache {
	return &ResultCache{
		store: make(map[string]*Entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a cached result if available and not expired.
// A nil cache never hits.
func (c *ResultCache) Get(key string) (*Entry, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry, true
}

// Set stores a result under key.
func (c *ResultCache) Set(key string, r *model.OptimizationResult, cfg model.OptimizerConfig) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &Entry{
		Result:    r,
		Config:    cfg,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Len counts stored entries, expired or not.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries.
func (c *ResultCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*Entry)
}

// Evict removes expired entries.
func (c *ResultCache) Evict() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// Run evicts expired entries every interval until ctx is done.
func (c *ResultCache) Run(ctx context.Context, interval time.Duration) {
	if c == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Evict()
		}
	}
}

// Key derives a deterministic id from the run inputs.
func Key(inputs ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, in := range inputs {
		if err := enc.Encode(in); err != nil {
			return "", fmt.Errorf("hash cache key: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:32], nil
}
