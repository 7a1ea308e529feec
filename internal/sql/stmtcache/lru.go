// Package stmtcache keeps recently parsed statements keyed by their SQL text,
// so a repeated statement skips the parser.
package stmtcache

import (
	"container/list"
	"sync"

	"github.com/tuannm99/memsql/internal/sql/parser"
)

type entry struct {
	sql  string
	stmt parser.Statement
}

// Cache is a fixed-size LRU. Cached statements are shared between callers
// and must be treated as read-only.
type Cache struct {
	mu       sync.Mutex
	capacity int
	lruList  *list.List
	items    map[string]*list.Element

	hits, misses uint64
}

// New returns a cache holding at most capacity statements. A capacity
// <= 0 returns nil, and a nil *Cache is a valid cache that stores nothing.
func New(capacity int) *Cache {
	if capacity <= 0 {
		return nil
	}
	return &Cache{
		capacity: capacity,
		lruList:  list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *Cache) Get(sql string) (parser.Statement, bool) {
	if c == nil {
		return parser.Statement{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[sql]
	if !ok {
		c.misses++
		return parser.Statement{}, false
	}
	c.hits++
	c.lruList.MoveToFront(elem)
	return elem.Value.(*entry).stmt, true
}

func (c *Cache) Put(sql string, stmt parser.Statement) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[sql]; ok {
		elem.Value.(*entry).stmt = stmt
		c.lruList.MoveToFront(elem)
		return
	}

	c.items[sql] = c.lruList.PushFront(&entry{sql: sql, stmt: stmt})
	for c.lruList.Len() > c.capacity {
		back := c.lruList.Back()
		c.lruList.Remove(back)
		delete(c.items, back.Value.(*entry).sql)
	}
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
