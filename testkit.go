package stmtpool

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotMocked is returned by test fakes for methods that have no useful
// default and no Func field set.
var ErrNotMocked = errors.New("stmtpool: method not mocked on test fake; set the corresponding Func field")

// TestDriverConn is a fake DriverConn for unit tests. The zero value is
// usable: Prepare returns a fresh statement description, Exec reports one
// row affected, and batch/copy/close succeed. Set a Func field to override
// a method.
//
// Every call is appended to Journal ("prepare <sql>", "deallocate <name>",
// "exec <sql>", "batch <sql>", "begin", "close", ...) so tests can assert
// call order, in particular that statements are deallocated before the
// connection closes.
type TestDriverConn struct {
	PrepareFunc      func(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
	DeallocateFunc   func(ctx context.Context, name string) error
	ExecFunc         func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFunc        func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BatchExecuteFunc func(ctx context.Context, sql string) error
	CopyFromFunc     func(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error)
	BeginFunc        func(ctx context.Context) (pgx.Tx, error)
	CloseFunc        func(ctx context.Context) error

	// Desynchronized is returned by IsDesynchronized.
	Desynchronized bool

	// Journal is the ordered record of every driver call.
	Journal []string

	// PrepareCalls counts Prepare invocations.
	PrepareCalls int
}

var _ DriverConn = (*TestDriverConn)(nil)

func (c *TestDriverConn) record(entry string) {
	c.Journal = append(c.Journal, entry)
}

func (c *TestDriverConn) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	c.PrepareCalls++
	c.record("prepare " + sql)
	if c.PrepareFunc != nil {
		return c.PrepareFunc(ctx, name, sql)
	}
	return &pgconn.StatementDescription{Name: name, SQL: sql}, nil
}

func (c *TestDriverConn) Deallocate(ctx context.Context, name string) error {
	c.record("deallocate " + name)
	if c.DeallocateFunc != nil {
		return c.DeallocateFunc(ctx, name)
	}
	return nil
}

func (c *TestDriverConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.record("exec " + sql)
	if c.ExecFunc != nil {
		return c.ExecFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (c *TestDriverConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.record("query " + sql)
	if c.QueryFunc != nil {
		return c.QueryFunc(ctx, sql, args...)
	}
	return nil, ErrNotMocked
}

func (c *TestDriverConn) BatchExecute(ctx context.Context, sql string) error {
	c.record("batch " + sql)
	if c.BatchExecuteFunc != nil {
		return c.BatchExecuteFunc(ctx, sql)
	}
	return nil
}

func (c *TestDriverConn) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error) {
	c.record("copy " + table.Sanitize())
	if c.CopyFromFunc != nil {
		return c.CopyFromFunc(ctx, table, columns, rows)
	}
	return 0, nil
}

func (c *TestDriverConn) Begin(ctx context.Context) (pgx.Tx, error) {
	c.record("begin")
	if c.BeginFunc != nil {
		return c.BeginFunc(ctx)
	}
	return &TestTx{Driver: c}, nil
}

func (c *TestDriverConn) IsDesynchronized() bool {
	return c.Desynchronized
}

func (c *TestDriverConn) Close(ctx context.Context) error {
	c.record("close")
	if c.CloseFunc != nil {
		return c.CloseFunc(ctx)
	}
	return nil
}

// TestTx is a fake pgx.Tx. When Driver is set, transaction-scoped calls
// are journaled there with a "tx " prefix. Query-surface methods this package
// never uses return ErrNotMocked or panic.
type TestTx struct {
	Driver *TestDriverConn

	PrepareFunc func(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
	ExecFunc    func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginFunc   func(ctx context.Context) (pgx.Tx, error)

	CommitErr   error
	RollbackErr error

	CommitCalls   int
	RollbackCalls int

	// PrepareCalls counts transaction-scoped Prepare invocations.
	PrepareCalls int
}

var _ pgx.Tx = (*TestTx)(nil)

func (t *TestTx) record(entry string) {
	if t.Driver != nil {
		t.Driver.record("tx " + entry)
	}
}

func (t *TestTx) Begin(ctx context.Context) (pgx.Tx, error) {
	t.record("begin")
	if t.BeginFunc != nil {
		return t.BeginFunc(ctx)
	}
	return &TestTx{Driver: t.Driver}, nil
}

func (t *TestTx) Commit(_ context.Context) error {
	t.CommitCalls++
	t.record("commit")
	return t.CommitErr
}

func (t *TestTx) Rollback(_ context.Context) error {
	t.RollbackCalls++
	t.record("rollback")
	return t.RollbackErr
}

func (t *TestTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	t.PrepareCalls++
	t.record("prepare " + sql)
	if t.PrepareFunc != nil {
		return t.PrepareFunc(ctx, name, sql)
	}
	return &pgconn.StatementDescription{Name: name, SQL: sql}, nil
}

func (t *TestTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.record("exec " + sql)
	if t.ExecFunc != nil {
		return t.ExecFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (t *TestTx) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	t.record("copy " + table.Sanitize())
	return 0, nil
}

func (t *TestTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, ErrNotMocked
}

func (t *TestTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return &errRow{err: ErrNotMocked}
}

func (t *TestTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults {
	panic("stmtpool.TestTx: unexpected SendBatch call")
}

func (t *TestTx) LargeObjects() pgx.LargeObjects {
	panic("stmtpool.TestTx: unexpected LargeObjects call")
}

func (t *TestTx) Conn() *pgx.Conn { return nil }

type errRow struct {
	err error
}

func (r *errRow) Scan(_ ...any) error { return r.err }
