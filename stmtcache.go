package stmtpool

import (
	"container/list"
	"context"
)

// stmtCache is a per-connection LRU cache of prepared statements keyed by
// byte-exact query text. It is not safe for concurrent use; a connection
// and its cache have a single owning goroutine (see Conn).
type stmtCache struct {
	capacity int
	ll       *list.List // front = most recently used
	m        map[string]*list.Element

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key  string
	stmt *Statement
}

// CacheStats is a point-in-time snapshot of a connection's statement
// cache counters and occupancy.
type CacheStats struct {
	Hits     uint64
	Misses   uint64
	Size     int
	Capacity int
}

func newStmtCache(capacity int) *stmtCache {
	if capacity < 0 {
		capacity = 0
	}
	return &stmtCache{
		capacity: capacity,
		ll:       list.New(),
		m:        make(map[string]*list.Element),
	}
}

// lookup returns the cached statement for query, refreshing its recency
// and taking a caller reference.
func (c *stmtCache) lookup(query string) (*Statement, bool) {
	ele, ok := c.m[query]
	if !ok {
		c.misses++
		return nil, false
	}
	c.ll.MoveToFront(ele)
	c.hits++
	st := ele.Value.(*cacheEntry).stmt
	st.refs++
	return st, true
}

// insert stores st under query, taking a cache reference, and evicts the
// least recently used entry when over capacity. With capacity 0 nothing
// is stored.
func (c *stmtCache) insert(ctx context.Context, query string, st *Statement) {
	if c.capacity == 0 {
		return
	}
	st.refs++
	st.cached = true
	c.m[query] = c.ll.PushFront(&cacheEntry{key: query, stmt: st})
	if c.ll.Len() > c.capacity {
		c.evictLRU(ctx)
	}
}

func (c *stmtCache) evictLRU(ctx context.Context) {
	back := c.ll.Back()
	if back == nil {
		return
	}
	c.ll.Remove(back)
	e := back.Value.(*cacheEntry)
	delete(c.m, e.key)
	e.stmt.cached = false
	// Releases the cache reference; the statement is deallocated only if
	// no caller still holds it.
	_ = e.stmt.Close(ctx)
}

// setCapacity re-bounds the cache, evicting as needed. setCapacity(0)
// releases every entry; Conn.Close uses that to drain the cache before
// the driver connection goes away.
func (c *stmtCache) setCapacity(ctx context.Context, capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	c.capacity = capacity
	for c.ll.Len() > capacity {
		c.evictLRU(ctx)
	}
}

func (c *stmtCache) len() int { return c.ll.Len() }

func (c *stmtCache) stats() CacheStats {
	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		Size:     c.ll.Len(),
		Capacity: c.capacity,
	}
}
