package stmtpool

import "errors"

var (
	// ErrConnClosed is returned by operations on a closed Conn.
	ErrConnClosed = errors.New("stmtpool: connection is closed")

	// ErrStatementClosed is returned when a Statement is used after its
	// last reference was released or after its owning connection closed.
	ErrStatementClosed = errors.New("stmtpool: statement is closed")

	// ErrTxClosed is returned by operations on a finished Tx.
	ErrTxClosed = errors.New("stmtpool: transaction is closed")

	// ErrPoolClosed is returned by Acquire on a closed Pool.
	ErrPoolClosed = errors.New("stmtpool: pool is closed")
)

// ConnectError reports a failure to produce a usable connection: either the
// connection parameters did not parse, or session establishment failed.
// Its message is the wrapped driver error's message.
type ConnectError struct {
	cause error
}

func (e *ConnectError) Error() string { return e.cause.Error() }
func (e *ConnectError) Unwrap() error { return e.cause }

// OpError reports a failure on an established connection: prepare failure,
// execution failure, or a failed validation round trip. Its message is the
// wrapped driver error's message.
type OpError struct {
	cause error
}

func (e *OpError) Error() string { return e.cause.Error() }
func (e *OpError) Unwrap() error { return e.cause }

func connectErr(err error) error {
	if err == nil {
		return nil
	}
	return &ConnectError{cause: err}
}

func opErr(err error) error {
	if err == nil {
		return nil
	}
	return &OpError{cause: err}
}
