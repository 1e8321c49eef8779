package upbit

import (
	"sync"
	"time"
)

// DefaultCacheTTL bounds how stale a cached price may be before the
// gateway falls back to a REST lookup.
const DefaultCacheTTL = 5 * time.Second

type cacheEntry struct {
	price float64
	at    time.Time
}

// PriceCache is an in-process last-price cache keyed by ticker.
// The websocket stream keeps it warm, readers treat entries older
// than the TTL as misses.
type PriceCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func NewPriceCache(ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PriceCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Set stores the latest price for a ticker.
func (c *PriceCache) Set(ticker string, price float64) {
	c.mu.Lock()
	c.entries[ticker] = cacheEntry{price: price, at: time.Now()}
	c.mu.Unlock()
}

// Get returns the cached price if it is fresh.
func (c *PriceCache) Get(ticker string) (float64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[ticker]
	c.mu.RUnlock()

	if !ok || time.Since(entry.at) > c.ttl {
		return 0, false
	}
	return entry.price, true
}
