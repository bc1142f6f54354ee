package stmtpool

import "context"

// GenericConn is the capability set shared by a top-level Conn and any
// Tx derived from it. Application code that works both inside and outside
// a transaction should depend on this interface.
//
// All methods require context.Context so cancellation propagates to
// in-flight driver operations.
type GenericConn interface {
	// Prepare returns a shared handle to a prepared statement for query,
	// consulting the connection's statement cache. Close the handle when
	// done with it.
	Prepare(ctx context.Context, query string) (*Statement, error)

	// Exec prepares query (through the cache) and executes it with args,
	// returning the number of rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// PrepareCopyIn returns a one-shot bulk load statement for table.
	// Copy statements bypass the cache.
	PrepareCopyIn(table string, columns []string) (*CopyInStatement, error)

	// BatchExecute sends sql as a raw multi-statement batch, bypassing
	// both the cache and the prepare step.
	BatchExecute(ctx context.Context, sql string) error

	// Begin opens a transaction scoped under this connection. The
	// returned Tx shares this connection's statement cache.
	Begin(ctx context.Context) (*Tx, error)
}
