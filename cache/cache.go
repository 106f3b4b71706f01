// Copyright 2025 MarketLounge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache is a best-effort in-process result cache. Keys embed the
// index version, so entries written against a retired index become
// unreachable the moment a new version is published and simply age out.
package cache

import (
	"encoding/hex"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-crypt/x/blake2b"
	"github.com/marketlounge/matchcore/core"
)

// Config holds result cache settings.
type Config struct {
	// NumCounters sizes ristretto's frequency sketch.
	NumCounters int64
	// MaxCost bounds total cached shortlist entries.
	MaxCost int64
	// TTL expires entries regardless of pressure.
	TTL time.Duration
}

// Option configures a ResultCache.
type Option func(*Config)

// WithNumCounters sets the frequency sketch size.
func WithNumCounters(n int64) Option { return func(c *Config) { c.NumCounters = n } }

// WithMaxCost sets the total cost budget.
func WithMaxCost(n int64) Option { return func(c *Config) { c.MaxCost = n } }

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option { return func(c *Config) { c.TTL = ttl } }

// ResultCache caches ranked shortlists by query identity.
type ResultCache struct {
	cache   *ristretto.Cache[string, []core.MatchCandidate]
	ttl     time.Duration
	dropped atomic.Int64
}

// New creates a ResultCache. Defaults hold roughly ten thousand shortlists
// for five minutes.
func New(opts ...Option) (*ResultCache, error) {
	cfg := Config{
		NumCounters: 100_000,
		MaxCost:     10_000,
		TTL:         5 * time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	inner, err := ristretto.NewCache(&ristretto.Config[string, []core.MatchCandidate]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}
	return &ResultCache{cache: inner, ttl: cfg.TTL}, nil
}

// Key derives the cache key for a query. Everything that can change the
// result participates: normalized text, tenant, sorted filters, and the
// index version that served it.
func Key(normalizedQuery, tenantId string, filters map[string]string, indexVersion uint64) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00", normalizedQuery, tenantId, indexVersion)

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\x00", k, filters[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached shortlist, if present.
func (c *ResultCache) Get(key string) ([]core.MatchCandidate, bool) {
	return c.cache.Get(key)
}

// Put stores a shortlist. Admission is best-effort: ristretto may decline,
// and declines are only counted, never surfaced.
func (c *ResultCache) Put(key string, shortlist []core.MatchCandidate) {
	cost := int64(1 + len(shortlist))
	if !c.cache.SetWithTTL(key, shortlist, cost, c.ttl) {
		c.dropped.Add(1)
	}
}

// Dropped reports how many writes the cache declined.
func (c *ResultCache) Dropped() int64 {
	return c.dropped.Load()
}

// Wait blocks until buffered writes are applied. Intended for tests.
func (c *ResultCache) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *ResultCache) Close() {
	c.cache.Close()
}
