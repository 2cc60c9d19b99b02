package agvd

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/h3abionet/agvd-cli/internal/variant"
)

// Cache memoizes batch query results. Keys are composite: credential,
// kind, threshold, and the ordered identifier list (order-sensitive by
// design — a reordered batch is a different key).
type Cache interface {
	Get(key string) ([]Result, bool)
	Put(key string, results []Result)
}

// cacheKey builds the composite memoization key for one batch query.
func cacheKey(credential string, ids []string, threshold float64, kind variant.Kind) string {
	var b strings.Builder
	b.WriteString(credential)
	b.WriteByte('|')
	b.WriteString(string(kind))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(threshold, 'g', -1, 64))
	for _, id := range ids {
		b.WriteByte('|')
		b.WriteString(id)
	}
	return b.String()
}

// MemoCache is an in-memory Cache bounded to maxEntries, evicting the
// oldest entry when full. A zero TTL means entries never expire.
type MemoCache struct {
	mu         sync.Mutex
	entries    map[string]memoEntry
	order      []string
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

type memoEntry struct {
	results   []Result
	fetchedAt time.Time
}

// DefaultMaxEntries bounds the in-memory cache size.
const DefaultMaxEntries = 5000

// NewMemoCache creates a bounded in-memory cache. maxEntries <= 0
// selects DefaultMaxEntries.
func NewMemoCache(maxEntries int, ttl time.Duration) *MemoCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoCache{
		entries:    make(map[string]memoEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// SetClock replaces the clock used for TTL checks. Test hook.
func (c *MemoCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached results for key, if present and unexpired.
func (c *MemoCache) Get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.fetchedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.results, true
}

// Put stores results under key, evicting the oldest entry when the
// cache is full.
func (c *MemoCache) Put(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = memoEntry{results: results, fetchedAt: c.now()}
}

// Len returns the number of live entries.
func (c *MemoCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
