package index

import (
	"sync"
	"time"
)

// ZoneCache keeps the host -> zone answers of the resolver.
// Entries expire after ttl; Reset drops everything, e.g. on topology change.
type ZoneCache struct {
	mu        sync.RWMutex
	entries   map[string]entry // host -> zone
	ttl       time.Duration
	now       func() time.Time
	lastReset time.Time
	hits      uint64
	misses    uint64
}

type entry struct {
	zone    string
	expires time.Time
}

// Stats is a point-in-time snapshot of the cache
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	LastReset time.Time
}

// NewZoneCache creates a cache whose entries live for ttl.
// A non-positive ttl keeps entries until the next Reset.
func NewZoneCache(ttl time.Duration) *ZoneCache {
	return &ZoneCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached zone of host
func (c *ZoneCache) Get(host string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[host]
	if ok && c.ttl > 0 && c.now().After(e.expires) {
		delete(c.entries, host)
		ok = false
	}
	if !ok {
		c.misses++
		return "", false
	}
	c.hits++
	return e.zone, true
}

// Set stores the zone of host
func (c *ZoneCache) Set(host, zone string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[host] = entry{zone: zone, expires: c.now().Add(c.ttl)}
}

// Load replaces the whole cache with zones (host -> zone)
func (c *ZoneCache) Load(zones map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Clear and rebuild
	c.entries = make(map[string]entry, len(zones))
	expires := c.now().Add(c.ttl)
	for host, zone := range zones {
		c.entries[host] = entry{zone: zone, expires: expires}
	}
}

// Reset drops every entry
func (c *ZoneCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.lastReset = c.now()
}

// Len returns the number of entries, expired ones included until they are read
func (c *ZoneCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Stats returns the current counters
func (c *ZoneCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		LastReset: c.lastReset,
	}
}
