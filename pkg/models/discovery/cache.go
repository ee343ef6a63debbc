package discovery

import (
	"sync"

	"github.com/go-go-golems/canvas-chat/pkg/models"
)

// Cache stores discovered models per endpoint.
type Cache interface {
	Get(endpoint string) ([]*models.Model, bool)
	Put(endpoint string, ms []*models.Model)
	Invalidate(endpoint string)
	InvalidateAll()
}

// MemoryCache is the default Cache. It never expires entries. Endpoints are
// normalized before use as keys.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]*models.Model
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string][]*models.Model{}}
}

var _ Cache = (*MemoryCache)(nil)

func (c *MemoryCache) Get(endpoint string) ([]*models.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ms, ok := c.entries[models.NormalizeEndpoint(endpoint)]
	if !ok {
		return nil, false
	}
	return cloneModels(ms), true
}

func (c *MemoryCache) Put(endpoint string, ms []*models.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[models.NormalizeEndpoint(endpoint)] = cloneModels(ms)
}

func (c *MemoryCache) Invalidate(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, models.NormalizeEndpoint(endpoint))
}

func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]*models.Model{}
}

func cloneModels(ms []*models.Model) []*models.Model {
	ret := make([]*models.Model, 0, len(ms))
	for _, m := range ms {
		ret = append(ret, m.Clone())
	}
	return ret
}
