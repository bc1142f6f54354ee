package stmtpool

import "context"

// Conn wraps one driver connection together with its statement cache. It
// intentionally wraps (does not embed) the DriverConn.
//
// A Conn and everything derived from it (statements, transactions) belong
// to one goroutine at a time. There is no internal locking; concurrency is
// achieved by acquiring distinct Conns from a Pool, each with its own
// isolated cache.
type Conn struct {
	driver DriverConn
	cache  *stmtCache
	closed bool
}

var _ GenericConn = (*Conn)(nil)

// NewConn wraps an established driver connection with a fresh, empty
// statement cache of the given capacity. Capacity 0 disables caching.
// Most callers obtain Conns from a Pool or CachingManager instead.
func NewConn(driver DriverConn, cacheCapacity int) *Conn {
	return &Conn{
		driver: driver,
		cache:  newStmtCache(cacheCapacity),
	}
}

// Prepare returns a shared handle for query. A cached statement is reused
// without touching the driver; otherwise the query is prepared, cached
// (evicting the least recently used entry if needed), and returned. A
// prepare failure leaves the cache unchanged.
func (c *Conn) Prepare(ctx context.Context, query string) (*Statement, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	if st, ok := c.cache.lookup(query); ok {
		return st, nil
	}
	sd, err := c.driver.Prepare(ctx, stmtName(query), query)
	if err != nil {
		return nil, opErr(err)
	}
	st := &Statement{conn: c, sd: sd}
	c.cache.insert(ctx, query, st)
	st.refs++ // caller reference
	return st, nil
}

// Exec prepares query through the cache and executes it with args.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	st, err := c.Prepare(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() { _ = st.Close(ctx) }()
	return st.Exec(ctx, args...)
}

// PrepareCopyIn returns a bulk load statement for table. Copy statements
// are one-shot and parameterized by table and columns, so they bypass the
// statement cache.
func (c *Conn) PrepareCopyIn(table string, columns []string) (*CopyInStatement, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	return newCopyInStatement(table, columns, c.driver.CopyFrom), nil
}

// BatchExecute sends sql as a raw multi-statement batch, unparsed and
// uncached.
func (c *Conn) BatchExecute(ctx context.Context, sql string) error {
	if c.closed {
		return ErrConnClosed
	}
	return opErr(c.driver.BatchExecute(ctx, sql))
}

// Begin opens a driver-level transaction under this connection. The
// returned Tx consults this connection's statement cache.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	dtx, err := c.driver.Begin(ctx)
	if err != nil {
		return nil, opErr(err)
	}
	return &Tx{conn: c, tx: dtx}, nil
}

// CacheStats reports statement cache counters for this connection.
func (c *Conn) CacheStats() CacheStats {
	return c.cache.stats()
}

// Close drains the statement cache and then releases the driver
// connection. Cached statements are deallocated strictly before the
// session goes away, so no statement outlives its connection. Handles
// still held by callers at this point become unusable and report
// ErrStatementClosed; do not close a Conn while you intend to keep using
// statements prepared on it. Close is idempotent.
func (c *Conn) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.cache.setCapacity(ctx, 0)
	c.closed = true
	return c.driver.Close(ctx)
}
