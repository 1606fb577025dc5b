// Package cache holds the per-bill detail cache. A present key means the
// bill's details were fetched (possibly empty); an absent key means they
// never were. An entry recorded after a failed fetch is marked degraded so a
// strict reader can fetch it again.
package cache

import (
	"slices"
	"sync"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
)

// DetailCache maps bill numbers to their line items.
type DetailCache struct {
	mu       sync.RWMutex
	details  map[string][]billing.BillDetail
	degraded map[string]bool
}

// New creates an empty DetailCache.
func New() *DetailCache {
	return &DetailCache{
		details:  make(map[string][]billing.BillDetail),
		degraded: make(map[string]bool),
	}
}

// Get returns a copy of the cached details and whether the bill was fetched.
func (c *DetailCache) Get(billNo string) ([]billing.BillDetail, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	details, ok := c.details[billNo]
	if !ok {
		return nil, false
	}
	return slices.Clone(details), true
}

// Has reports whether billNo has an entry.
func (c *DetailCache) Has(billNo string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.details[billNo]
	return ok
}

// Set overwrites the entry for billNo. A nil slice is stored as empty.
func (c *DetailCache) Set(billNo string, details []billing.BillDetail) {
	stored := slices.Clone(details)
	if stored == nil {
		stored = []billing.BillDetail{}
	}
	c.mu.Lock()
	c.details[billNo] = stored
	delete(c.degraded, billNo)
	c.mu.Unlock()
}

// Fill stores details fetched by a background load. It writes only when
// billNo is absent or degraded, so a fetch that started before a newer
// write cannot replace it. Reports whether it wrote.
func (c *DetailCache) Fill(billNo string, details []billing.BillDetail) bool {
	stored := slices.Clone(details)
	if stored == nil {
		stored = []billing.BillDetail{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.details[billNo]; ok && !c.degraded[billNo] {
		return false
	}
	c.details[billNo] = stored
	delete(c.degraded, billNo)
	return true
}

// MarkDegraded records billNo as fetched with no details after a failed
// fetch. An existing entry is left alone.
func (c *DetailCache) MarkDegraded(billNo string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.details[billNo]; ok {
		return
	}
	c.details[billNo] = []billing.BillDetail{}
	c.degraded[billNo] = true
}

// Degraded reports whether billNo's entry stands in for a failed fetch.
func (c *DetailCache) Degraded(billNo string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded[billNo]
}

// Invalidate removes the entry for billNo. Absent keys are ignored.
func (c *DetailCache) Invalidate(billNo string) {
	c.mu.Lock()
	delete(c.details, billNo)
	delete(c.degraded, billNo)
	c.mu.Unlock()
}

// Len returns the number of fetched bills.
func (c *DetailCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.details)
}
