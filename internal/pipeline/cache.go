package pipeline

import (
	"sync"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
)

// PartitionCache memoizes normalized partition results for the lifetime of
// the process. It is never invalidated by time; only Clear empties it.
// The cache is the single source of truth for "has this partition been
// fetched this session".
type PartitionCache struct {
	mu      sync.RWMutex
	entries map[model.PartitionKey][]model.CanonicalRecord
}

// NewPartitionCache creates an empty cache.
func NewPartitionCache() *PartitionCache {
	return &PartitionCache{
		entries: make(map[model.PartitionKey][]model.CanonicalRecord),
	}
}

// Get returns a copy of the cached records for key. Copying keeps callers
// from mutating the canonical entry through the returned slice.
func (c *PartitionCache) Get(key model.PartitionKey) ([]model.CanonicalRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	out := make([]model.CanonicalRecord, len(records))
	copy(out, records)
	return out, true
}

// Put stores a copy of records under key, replacing any previous entry.
func (c *PartitionCache) Put(key model.PartitionKey, records []model.CanonicalRecord) {
	stored := make([]model.CanonicalRecord, len(records))
	copy(stored, records)

	c.mu.Lock()
	c.entries[key] = stored
	c.mu.Unlock()
}

// Clear drops every cached partition. Callers decide when staleness
// matters; a refresh that intends to re-hit upstream calls this first.
func (c *PartitionCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[model.PartitionKey][]model.CanonicalRecord)
	c.mu.Unlock()
}

// Len returns the number of cached partitions.
func (c *PartitionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
