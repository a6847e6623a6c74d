// Package status keeps the most recent probe result for each target in
// memory. Results are never merged; a newer one replaces the old.
package status

import (
	"sync"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

type Cache struct {
	mu      sync.RWMutex
	results map[domain.TargetID]domain.ProbeResult
}

func NewCache() *Cache {
	return &Cache{results: make(map[domain.TargetID]domain.ProbeResult)}
}

// Record stores r unless a result that completed later is already held.
func (c *Cache) Record(id domain.TargetID, r domain.ProbeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.results[id]; ok && cur.ObservedAt.After(r.ObservedAt) {
		return
	}
	c.results[id] = r
}

func (c *Cache) Get(id domain.TargetID) (domain.ProbeResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[id]
	return r, ok
}

func (c *Cache) Forget(id domain.TargetID) {
	c.mu.Lock()
	delete(c.results, id)
	c.mu.Unlock()
}

// All returns a copy of every held result.
func (c *Cache) All() map[domain.TargetID]domain.ProbeResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[domain.TargetID]domain.ProbeResult, len(c.results))
	for id, r := range c.results {
		out[id] = r
	}
	return out
}
