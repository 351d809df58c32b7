package overpass

import (
	"container/list"
	"sync"

	"github.com/paulmach/osm"
)

// NodeCache bounded lru over per-node way-query results. Process-wide and
// shared across pipeline runs; read-mostly.
type NodeCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[osm.NodeID]*list.Element
}

type cacheEntry struct {
	key osm.NodeID
	val *Result
}

func NewNodeCache(capacity int) *NodeCache {
	return &NodeCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[osm.NodeID]*list.Element),
	}
}

func (c *NodeCache) Get(id osm.NodeID) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).val, true
}

func (c *NodeCache) Add(id osm.NodeID, val *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[id]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).val = val
		return
	}

	el := c.order.PushFront(&cacheEntry{key: id, val: val})
	c.items[id] = el

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *NodeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
