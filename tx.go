package stmtpool

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Tx is a transaction-scoped view of a Conn. It holds a non-owning
// back-reference to its parent connection for statement cache lookups and
// exclusively owns one driver-level transaction handle. A Tx can spawn
// nested transactions; every level consults the same root connection's
// cache.
//
// Commit and Rollback only govern the driver transaction; the statement
// cache's lifecycle belongs entirely to the parent Conn.
type Tx struct {
	conn *Conn
	tx   pgx.Tx
	done bool
}

var _ GenericConn = (*Tx)(nil)

// Prepare consults the parent connection's cache; on a hit the cached
// statement is reused without touching the driver. On a miss the query is
// prepared through this transaction and handed back uncached: a statement
// first prepared inside a transaction is scoped to work that may never
// commit, so it is not promoted to the connection-lifetime cache.
func (t *Tx) Prepare(ctx context.Context, query string) (*Statement, error) {
	if t.done {
		return nil, ErrTxClosed
	}
	if t.conn.closed {
		return nil, ErrConnClosed
	}
	if st, ok := t.conn.cache.lookup(query); ok {
		return st, nil
	}
	sd, err := t.tx.Prepare(ctx, stmtName(query), query)
	if err != nil {
		return nil, opErr(err)
	}
	return &Statement{conn: t.conn, sd: sd, refs: 1}, nil
}

// Exec prepares query (see Prepare) and executes it with args.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	st, err := t.Prepare(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() { _ = st.Close(ctx) }()
	return st.Exec(ctx, args...)
}

// PrepareCopyIn returns a bulk load statement running inside this
// transaction. Copy statements bypass the cache.
func (t *Tx) PrepareCopyIn(table string, columns []string) (*CopyInStatement, error) {
	if t.done {
		return nil, ErrTxClosed
	}
	if t.conn.closed {
		return nil, ErrConnClosed
	}
	return newCopyInStatement(table, columns, t.tx.CopyFrom), nil
}

// BatchExecute sends sql as a raw batch on the underlying session, which
// runs it inside this transaction.
func (t *Tx) BatchExecute(ctx context.Context, sql string) error {
	if t.done {
		return ErrTxClosed
	}
	if t.conn.closed {
		return ErrConnClosed
	}
	return opErr(t.conn.driver.BatchExecute(ctx, sql))
}

// Begin opens a nested transaction. The nested Tx shares the same parent
// connection back-reference, and with it the statement cache.
func (t *Tx) Begin(ctx context.Context) (*Tx, error) {
	if t.done {
		return nil, ErrTxClosed
	}
	if t.conn.closed {
		return nil, ErrConnClosed
	}
	nested, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, opErr(err)
	}
	return &Tx{conn: t.conn, tx: nested}, nil
}

// Commit commits the driver transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	return opErr(t.tx.Commit(ctx))
}

// Rollback aborts the driver transaction. Rollback after the transaction
// finished is a no-op, so it is safe to defer.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return opErr(t.tx.Rollback(ctx))
}
