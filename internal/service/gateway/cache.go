package gateway

import (
	"sync"

	"github.com/sandevgo/memochat/internal/core"
)

const cacheCapacity = 100

type cacheEntry struct {
	content string
	blob    core.ContextBlob
}

// ResponseCache is a bounded response cache keyed by model + raw prompt.
// Eviction is insertion-order (plain FIFO, not LRU): when full, the oldest
// entry goes first regardless of how recently it was read.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string
	cap     int
}

func NewResponseCache() *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]cacheEntry),
		cap:     cacheCapacity,
	}
}

func cacheKey(model, prompt string) string {
	return model + "\x00" + prompt
}

func (c *ResponseCache) Get(model, prompt string) (core.GenerateResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey(model, prompt)]
	if !ok {
		return core.GenerateResult{}, false
	}
	return core.GenerateResult{Content: entry.content, Context: entry.blob}, true
}

func (c *ResponseCache) Put(model, prompt string, result core.GenerateResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(model, prompt)
	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.cap {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{content: result.Content, blob: result.Context}
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
