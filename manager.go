package stmtpool

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Manager produces and health-checks raw driver connections. Constructing
// a Manager never fails: a connection-string parse error (or a security
// policy violation) is stored and returned by every Connect call, never
// re-parsed.
type Manager struct {
	config    *pgx.ConnConfig
	configErr error
}

// NewManager parses cfg's connection string and applies its security mode.
func NewManager(cfg Config) *Manager {
	m := &Manager{}
	pgxCfg, err := pgx.ParseConfig(cfg.ConnString)
	if err != nil {
		m.configErr = err
		return m
	}
	if err := applySecurity(pgxCfg, cfg.Security); err != nil {
		m.configErr = err
		return m
	}
	if cfg.ConnectTimeout > 0 {
		pgxCfg.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.Tracer != nil {
		pgxCfg.Tracer = cfg.Tracer
	}
	m.config = pgxCfg
	return m
}

func applySecurity(cfg *pgx.ConnConfig, mode SecurityMode) error {
	switch mode {
	case SecurityRequire:
		if cfg.TLSConfig == nil {
			return errors.New("stmtpool: TLS required but the connection string negotiated plaintext (use sslmode=require or stricter)")
		}
		for _, fb := range cfg.Fallbacks {
			if fb.TLSConfig == nil {
				return errors.New("stmtpool: TLS required but a plaintext fallback is configured (sslmode=allow/prefer is not permitted)")
			}
		}
	case SecurityDisable:
		cfg.TLSConfig = nil
		for _, fb := range cfg.Fallbacks {
			fb.TLSConfig = nil
		}
	}
	return nil
}

// Connect opens a raw driver connection. Failures, including a stored
// configuration error, are reported as *ConnectError.
func (m *Manager) Connect(ctx context.Context) (DriverConn, error) {
	if m.configErr != nil {
		return nil, connectErr(m.configErr)
	}
	conn, err := driverConnect(ctx, m.config)
	if err != nil {
		return nil, connectErr(err)
	}
	return conn, nil
}

// IsValid reports whether conn can still serve queries, via an empty
// batch round trip.
func (m *Manager) IsValid(ctx context.Context, conn DriverConn) error {
	return opErr(conn.BatchExecute(ctx, ""))
}

// HasBroken reports whether conn's protocol state is corrupted, e.g. by a
// caller that panicked mid-query. A broken connection must be discarded,
// not revalidated.
func (m *Manager) HasBroken(conn DriverConn) bool {
	return conn.IsDesynchronized()
}

// CachingManager layers a per-connection statement cache over Manager.
// Its three methods are the lifecycle hooks a pool host needs: connect,
// validate, has-broken.
type CachingManager struct {
	manager  *Manager
	capacity int
}

// NewCachingManager builds the lifecycle hooks for cfg. The statement
// cache capacity is taken from cfg; 0 disables caching.
func NewCachingManager(cfg Config) *CachingManager {
	return &CachingManager{
		manager:  NewManager(cfg),
		capacity: cfg.StatementCacheCapacity,
	}
}

// Connect opens a connection and wraps it with a fresh, empty statement
// cache.
func (m *CachingManager) Connect(ctx context.Context) (*Conn, error) {
	driver, err := m.manager.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return NewConn(driver, m.capacity), nil
}

// IsValid reports whether conn can be recycled.
func (m *CachingManager) IsValid(ctx context.Context, conn *Conn) error {
	if conn.closed {
		return ErrConnClosed
	}
	return m.manager.IsValid(ctx, conn.driver)
}

// HasBroken reports whether conn must be discarded.
func (m *CachingManager) HasBroken(conn *Conn) bool {
	return conn.closed || m.manager.HasBroken(conn.driver)
}
