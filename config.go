package stmtpool

import (
	"time"

	"github.com/jackc/pgx/v5"
)

// SecurityMode is the TLS policy applied to new driver connections. The
// handshake itself belongs to pgx; this package only decides whether a
// parsed configuration is acceptable.
type SecurityMode int

const (
	// SecurityPrefer accepts whatever the connection string negotiated,
	// including plaintext.
	SecurityPrefer SecurityMode = iota

	// SecurityRequire rejects configurations without TLS, including
	// plaintext fallbacks (sslmode=allow/prefer).
	SecurityRequire

	// SecurityDisable strips TLS and connects in plaintext.
	SecurityDisable
)

func (m SecurityMode) String() string {
	switch m {
	case SecurityPrefer:
		return "prefer"
	case SecurityRequire:
		return "require"
	case SecurityDisable:
		return "disable"
	default:
		return "unknown"
	}
}

// DefaultStatementCacheCapacity is the per-connection statement cache size
// applied by NewConfig.
const DefaultStatementCacheCapacity = 10

// Config controls connection establishment and per-connection statement
// caching. Build it with NewConfig so defaults are filled in; fields may
// then be overridden, including setting StatementCacheCapacity to 0.
type Config struct {
	// ConnString is the Postgres connection string (URL or DSN form).
	ConnString string

	// Security is the TLS policy. Defaults to SecurityPrefer.
	Security SecurityMode

	// StatementCacheCapacity is the per-connection LRU capacity.
	// NewConfig sets it to DefaultStatementCacheCapacity; 0 disables
	// caching entirely (every Prepare re-prepares).
	StatementCacheCapacity int

	// MaxConns caps the pool size. Defaults to 10.
	MaxConns int32

	// ConnectTimeout bounds session establishment. Defaults to 10s.
	ConnectTimeout time.Duration

	// CloseTimeout bounds teardown of a connection being destroyed by the
	// pool. Defaults to 5s.
	CloseTimeout time.Duration

	// Tracer, when set, is installed on every driver connection. Use
	// pgx/v5/tracelog to route query tracing into slog or another logger.
	Tracer pgx.QueryTracer
}

// NewConfig returns a Config for connString with all defaults applied.
func NewConfig(connString string) Config {
	return Config{
		ConnString:             connString,
		Security:               SecurityPrefer,
		StatementCacheCapacity: DefaultStatementCacheCapacity,
		MaxConns:               10,
		ConnectTimeout:         10 * time.Second,
		CloseTimeout:           5 * time.Second,
	}
}
