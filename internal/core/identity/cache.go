package identity

import "sync"

// Cache holds identity snapshots for the lifetime of one client session.
// Entries are never invalidated and writes are append-only keyed by user id,
// so concurrent population is safe: the last writer for a key wins and the values are equivalent.
type Cache struct {
	entries map[string]Snapshot
	mu      sync.RWMutex
}

// NewCache creates an empty session cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Snapshot),
	}
}

// Get returns the cached snapshot for a user
func (c *Cache) Get(userID string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.entries[userID]
	return s, ok
}

// Put stores a snapshot. Degraded placeholders are never cached so a later
// assembly gets another chance to resolve the real identity.
func (c *Cache) Put(s Snapshot) {
	if s.UserID == "" || s.Degraded {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[s.UserID] = s
}

// Partition splits userIDs into cached snapshots and the ids still missing
func (c *Cache) Partition(userIDs []string) (map[string]Snapshot, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found := make(map[string]Snapshot, len(userIDs))
	missing := make([]string, 0)
	for _, id := range userIDs {
		if s, ok := c.entries[id]; ok {
			found[id] = s
			continue
		}
		missing = append(missing, id)
	}
	return found, missing
}

// Len returns the number of cached identities
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
