package stmtpool

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/puddle/v2"
)

// Pool hands out Conns with isolated statement caches. It wraps puddle,
// wiring CachingManager's lifecycle hooks into the generic pool:
// construction through Connect, health policy on release (HasBroken
// destroys without revalidation, a failed IsValid round trip destroys),
// destruction through Conn.Close under a bounded context.
//
// Two goroutines never share one Conn; each Acquire grants exclusive use
// until Release.
type Pool struct {
	p            *puddle.Pool[*Conn]
	mgr          *CachingManager
	closeTimeout time.Duration
}

// NewPool creates a pool for cfg. No connection is opened until the first
// Acquire.
func NewPool(cfg Config) (*Pool, error) {
	mgr := NewCachingManager(cfg)

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	closeTimeout := cfg.CloseTimeout
	if closeTimeout <= 0 {
		closeTimeout = 5 * time.Second
	}

	pool := &Pool{mgr: mgr, closeTimeout: closeTimeout}
	p, err := puddle.NewPool(&puddle.Config[*Conn]{
		Constructor: func(ctx context.Context) (*Conn, error) {
			return mgr.Connect(ctx)
		},
		Destructor: func(conn *Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			_ = conn.Close(ctx)
		},
		MaxSize: maxConns,
	})
	if err != nil {
		return nil, err
	}
	pool.p = p
	return pool, nil
}

// Acquire checks out a connection for exclusive use by the calling
// goroutine. The caller must Release it.
func (p *Pool) Acquire(ctx context.Context) (*PooledConn, error) {
	res, err := p.p.Acquire(ctx)
	if err != nil {
		if errors.Is(err, puddle.ErrClosedPool) {
			return nil, ErrPoolClosed
		}
		return nil, err
	}
	return &PooledConn{res: res, pool: p}, nil
}

// Ping acquires a connection and performs a validation round trip.
func (p *Pool) Ping(ctx context.Context) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return p.mgr.IsValid(ctx, conn.Conn())
}

// Stat returns a snapshot of pool statistics.
func (p *Pool) Stat() *puddle.Stat {
	return p.p.Stat()
}

// Close releases all pool resources. Call once during graceful shutdown.
func (p *Pool) Close() {
	p.p.Close()
}

// PooledConn is a Conn checked out of a Pool. It exposes the generic
// connection contract and returns the connection to the pool on Release.
type PooledConn struct {
	res  *puddle.Resource[*Conn]
	pool *Pool
}

var _ GenericConn = (*PooledConn)(nil)

// Conn returns the underlying cached connection. It must not be used
// after Release.
func (c *PooledConn) Conn() *Conn {
	return c.res.Value()
}

func (c *PooledConn) Prepare(ctx context.Context, query string) (*Statement, error) {
	return c.res.Value().Prepare(ctx, query)
}

func (c *PooledConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return c.res.Value().Exec(ctx, query, args...)
}

func (c *PooledConn) PrepareCopyIn(table string, columns []string) (*CopyInStatement, error) {
	return c.res.Value().PrepareCopyIn(table, columns)
}

func (c *PooledConn) BatchExecute(ctx context.Context, sql string) error {
	return c.res.Value().BatchExecute(ctx, sql)
}

func (c *PooledConn) Begin(ctx context.Context) (*Tx, error) {
	return c.res.Value().Begin(ctx)
}

// Release returns the connection to the pool. A desynchronized connection
// is destroyed outright, without revalidation; an apparently healthy one
// is revalidated with a no-op round trip and destroyed if that fails.
// Release is idempotent. Statements prepared on the connection must not
// be retained past this point.
func (c *PooledConn) Release() {
	if c.res == nil {
		return
	}
	res := c.res
	c.res = nil

	conn := res.Value()
	if c.pool.mgr.HasBroken(conn) {
		res.Destroy()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.pool.closeTimeout)
	defer cancel()
	if err := c.pool.mgr.IsValid(ctx, conn); err != nil {
		res.Destroy()
		return
	}
	res.Release()
}
