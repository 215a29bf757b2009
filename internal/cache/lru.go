package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// LRU implements a size-bounded BlockCache with least-recently-used eviction.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   Key
	value []byte
}

// NewLRU creates a new LRU cache with the given capacity in bytes.
func NewLRU(capacity int64) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached block.
func (c *LRU) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a block. Blocks larger than the total capacity are not admitted.
func (c *LRU) Set(key Key, b []byte) {
	if int64(len(b)) > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		old := ent.Value.(*entry)
		c.size += int64(len(b)) - int64(len(old.value))
		old.value = b
		c.evictList.MoveToFront(ent)
	} else {
		c.items[key] = c.evictList.PushFront(&entry{key: key, value: b})
		c.size += int64(len(b))
	}

	for c.size > c.capacity {
		tail := c.evictList.Back()
		if tail == nil {
			break
		}
		ev := tail.Value.(*entry)
		c.evictList.Remove(tail)
		delete(c.items, ev.key)
		c.size -= int64(len(ev.value))
	}
}

// Stats returns hit/miss counters.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached blocks.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
