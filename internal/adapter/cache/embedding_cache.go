package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"docrag/internal/port"
)

// EmbeddingCache is a bounded LRU of vectors keyed by model and text.
type EmbeddingCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	order   []string // least recently used first
	maxSize int
	hits    uint64
	misses  uint64
}

func NewEmbeddingCache(maxSize int) *EmbeddingCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &EmbeddingCache{
		entries: make(map[string][]float32),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func cacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *EmbeddingCache) Get(model, text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(model, text)
	vec, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.moveToEnd(key)
	return vec, true
}

func (c *EmbeddingCache) Put(model, text string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(model, text)
	if _, exists := c.entries[key]; exists {
		c.entries[key] = vec
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = vec
	c.order = append(c.order, key)
}

// Purge drops every entry.
func (c *EmbeddingCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]float32)
	c.order = c.order[:0]
}

func (c *EmbeddingCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *EmbeddingCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *EmbeddingCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *EmbeddingCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}

var _ port.Embedder = (*CachedEmbedder)(nil)

// CachedEmbedder serves repeated texts from an EmbeddingCache and sends only
// the misses to the wrapped embedder, in one batch.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    *EmbeddingCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{embedder: embedder, cache: cache}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := e.embedder.ModelName()
	out := make([][]float32, len(texts))

	var (
		missTexts []string
		missIdx   []int
	)
	for i, t := range texts {
		if vec, ok := e.cache.Get(model, t); ok {
			out[i] = copyVector(vec)
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 && len(texts) > 0 {
		return out, nil
	}

	// An empty batch still goes through so the wrapped embedder reports it.
	vecs, err := e.embedder.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		e.cache.Put(model, missTexts[j], copyVector(vec))
		out[missIdx[j]] = vec
	}
	return out, nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.embedder.ModelName()
}

// Cache returns the underlying cache.
func (e *CachedEmbedder) Cache() *EmbeddingCache {
	return e.cache
}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
