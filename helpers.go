package stmtpool

import (
	"context"
	"time"
)

const defaultRollbackTimeout = 5 * time.Second

// WithConn acquires a connection from pool, calls fn, and always releases
// the connection.
func WithConn(ctx context.Context, pool *Pool, fn func(*Conn) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn.Conn())
}

// WithTx executes fn within a transaction on conn. If fn returns an error
// or panics, the transaction is rolled back. Otherwise, it is committed.
// The rollback runs under its own timeout so it still happens when the
// caller's context is already canceled.
func WithTx(ctx context.Context, conn GenericConn, fn func(*Tx) error) (err error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	rollbackCtx, cancelRollback := context.WithTimeout(context.Background(), defaultRollbackTimeout)
	defer cancelRollback()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(rollbackCtx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(rollbackCtx)
		}
	}()

	err = fn(tx)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
