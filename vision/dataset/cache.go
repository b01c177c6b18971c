package dataset

import (
	"container/list"
	"sync"

	"github.com/sonomed/sonoclass/tensor"
)

// decodeCache is an LRU cache of decoded image tensors keyed by file path.
// Cross-validation reads every image once per epoch per fold; caching the
// decode keeps only the transform pipeline on the hot path. Cached tensors
// are never handed out for mutation: transforms copy before writing.
type decodeCache struct {
	mu      sync.Mutex
	items   map[string]*tensor.Tensor
	lru     *list.List
	lruMap  map[string]*list.Element
	maxSize int

	hits   int64
	misses int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    int64
	Misses  int64
}

// HitRate returns the fraction of lookups served from the cache.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func newDecodeCache(maxSize int) *decodeCache {
	return &decodeCache{
		items:   make(map[string]*tensor.Tensor),
		lru:     list.New(),
		lruMap:  make(map[string]*list.Element),
		maxSize: maxSize,
	}
}

func (c *decodeCache) get(key string) (*tensor.Tensor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, exists := c.items[key]; exists {
		if elem, ok := c.lruMap[key]; ok {
			c.lru.MoveToFront(elem)
		}
		c.hits++
		return img, true
	}
	c.misses++
	return nil, false
}

func (c *decodeCache) put(key string, img *tensor.Tensor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		if elem, ok := c.lruMap[key]; ok {
			c.lru.MoveToFront(elem)
		}
		return
	}

	elem := c.lru.PushFront(key)
	c.lruMap[key] = elem
	c.items[key] = img

	for len(c.items) > c.maxSize && c.lru.Len() > 0 {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(string)
		c.lru.Remove(oldest)
		delete(c.lruMap, evicted)
		delete(c.items, evicted)
	}
}

func (c *decodeCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:    len(c.items),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}
