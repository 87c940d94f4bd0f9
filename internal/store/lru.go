package store

import (
	"container/list"
	"sync"
)

// cacheEntry is a container that stores the document and its key, its used by cache
type cacheEntry struct {
	key   string
	value []byte
}

// LRUCache is a bounded least-recently-used cache of raw documents.
type LRUCache struct {
	mu             sync.Mutex
	entryCountCap  int // cap max amount of entries
	entrySizeCap   int // cap of single entry size in bytes
	currEntryCount int
	items          map[string]*list.Element
	evictList      *list.List
}

func NewLRUCache(entryCountCap, entrySizeCap int) *LRUCache {
	return &LRUCache{
		entryCountCap: entryCountCap,
		entrySizeCap:  entrySizeCap,
		items:         make(map[string]*list.Element),
		evictList:     list.New(),
	}
}

func (c *LRUCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.evictList.MoveToFront(elem)
		return clone(elem.Value.(*cacheEntry).value), true
	}

	return nil, false
}

// Insert adds or refreshes key. Documents larger than the entry size cap
// are not cached, and a stale copy of such a key is dropped.
func (c *LRUCache) Insert(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if len(value) > c.entrySizeCap {
		if ok {
			c.removeElement(elem)
		}
		return
	}

	if !ok {
		entry := &cacheEntry{key, clone(value)}
		elem := c.evictList.PushFront(entry)
		c.items[key] = elem
		c.currEntryCount++
	} else {
		c.evictList.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = clone(value)
	}

	// Evict oldest items if cache amount cap hit
	for c.currEntryCount > c.entryCountCap {
		c.removeOldest()
	}
}

// Remove drops key from the cache if present.
func (c *LRUCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currEntryCount
}

// removeOldest is a helper function which deletes the LRU entry
// from the cache, pops the linked list from the back
func (c *LRUCache) removeOldest() {
	elem := c.evictList.Back()
	if elem != nil {
		c.removeElement(elem)
	}
}

func (c *LRUCache) removeElement(elem *list.Element) {
	entry := c.evictList.Remove(elem).(*cacheEntry)
	delete(c.items, entry.key)
	c.currEntryCount--
}
