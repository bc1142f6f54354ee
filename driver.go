package stmtpool

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DriverConn is the contract this package needs from the underlying driver
// connection. pgx satisfies it via the adapter installed by driverConnect.
//
// Transactions are consumed as pgx.Tx directly; it is already an interface
// and fakes well (see TestTx).
//
// Use this interface, with TestDriverConn, to exercise connection and cache
// behavior in unit tests without a server.
type DriverConn interface {
	// Prepare parses sql under the given statement name.
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)

	// Deallocate releases the named server-side prepared statement.
	Deallocate(ctx context.Context, name string) error

	// Exec executes sql (or a prepared statement name) with args.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Query executes sql (or a prepared statement name) and returns rows.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// BatchExecute sends sql as a raw multi-statement batch, unparsed and
	// unprepared. An empty string is a valid no-op round trip.
	BatchExecute(ctx context.Context, sql string) error

	// CopyFrom performs a bulk load into table.
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error)

	// Begin opens a driver-level transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// IsDesynchronized reports protocol-level corruption, independent of
	// socket liveness. A desynchronized connection must be discarded.
	IsDesynchronized() bool

	// Close tears down the session.
	Close(ctx context.Context) error
}

// driverConnect is a package-private seam used by tests to substitute fake
// driver connections without network dependencies.
var driverConnect = func(ctx context.Context, cfg *pgx.ConnConfig) (DriverConn, error) {
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: conn}, nil
}

// pgxConn adapts *pgx.Conn to DriverConn.
type pgxConn struct {
	conn *pgx.Conn
}

var _ DriverConn = (*pgxConn)(nil)

func (c *pgxConn) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return c.conn.Prepare(ctx, name, sql)
}

func (c *pgxConn) Deallocate(ctx context.Context, name string) error {
	return c.conn.Deallocate(ctx, name)
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *pgxConn) BatchExecute(ctx context.Context, sql string) error {
	// Simple protocol, multiple statements allowed, nothing prepared.
	_, err := c.conn.PgConn().Exec(ctx, sql).ReadAll()
	return err
}

func (c *pgxConn) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error) {
	return c.conn.CopyFrom(ctx, table, columns, rows)
}

func (c *pgxConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return c.conn.Begin(ctx)
}

func (c *pgxConn) IsDesynchronized() bool {
	if c.conn.IsClosed() {
		return true
	}
	pc := c.conn.PgConn()
	// Busy mid-query (e.g. a caller panicked between send and receive) or
	// stuck inside a transaction block: the session state is unknown.
	return pc.IsBusy() || pc.TxStatus() != 'I'
}

func (c *pgxConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}
