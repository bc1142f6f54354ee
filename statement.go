package stmtpool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stmtName returns a statement name that is stable for sql across
// connections and program executions.
func stmtName(sql string) string {
	digest := sha256.Sum256([]byte(sql))
	return "stmtpool_" + hex.EncodeToString(digest[:24])
}

// Statement is a shared handle to a server-side prepared statement. The
// same handle is returned to every caller that prepares the same query
// text on one connection; reference counting decides when the server-side
// statement is deallocated. The statement cache holds one reference and
// each Prepare call hands out another; Close releases one.
//
// A Statement is valid only while its owning connection is open. Using a
// handle after the connection closed fails with ErrStatementClosed.
type Statement struct {
	conn *Conn
	sd   *pgconn.StatementDescription

	refs   int
	cached bool
	closed bool
}

// SQL returns the query text the statement was prepared from.
func (s *Statement) SQL() string { return s.sd.SQL }

// Name returns the server-side statement name.
func (s *Statement) Name() string { return s.sd.Name }

// Exec runs the prepared statement with args and returns the number of
// rows affected. Parameter arity and type mismatches surface as driver
// errors.
func (s *Statement) Exec(ctx context.Context, args ...any) (int64, error) {
	if s.closed || s.conn.closed {
		return 0, ErrStatementClosed
	}
	tag, err := s.conn.driver.Exec(ctx, s.sd.Name, args...)
	if err != nil {
		return 0, opErr(err)
	}
	return tag.RowsAffected(), nil
}

// Query runs the prepared statement with args and returns the resulting
// rows. The caller must close them.
func (s *Statement) Query(ctx context.Context, args ...any) (pgx.Rows, error) {
	if s.closed || s.conn.closed {
		return nil, ErrStatementClosed
	}
	rows, err := s.conn.driver.Query(ctx, s.sd.Name, args...)
	if err != nil {
		return nil, opErr(err)
	}
	return rows, nil
}

// Close releases one reference. When the last reference is gone and the
// cache no longer holds the statement, it is deallocated on the server.
// Close after the owning connection closed is a no-op.
func (s *Statement) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	if s.refs > 0 {
		s.refs--
	}
	if s.refs > 0 || s.cached {
		return nil
	}
	s.closed = true
	if s.conn.closed {
		// The session is gone and took the statement with it.
		return nil
	}
	return opErr(s.conn.driver.Deallocate(ctx, s.sd.Name))
}
