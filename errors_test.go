package stmtpool

import (
	"errors"
	"testing"
)

func TestConnectError_DelegatesMessageAndUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("no pg_hba.conf entry for host")
	err := connectErr(cause)

	if err.Error() != cause.Error() {
		t.Fatalf("Error() = %q, want the wrapped message %q", err.Error(), cause.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is() = false, want the cause reachable through Unwrap")
	}
	var connectE *ConnectError
	if !errors.As(err, &connectE) {
		t.Fatalf("errors.As() failed for %T", err)
	}
}

func TestOpError_DelegatesMessageAndUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("current transaction is aborted")
	err := opErr(cause)

	if err.Error() != cause.Error() {
		t.Fatalf("Error() = %q, want the wrapped message %q", err.Error(), cause.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is() = false, want the cause reachable through Unwrap")
	}
	var opE *OpError
	if !errors.As(err, &opE) {
		t.Fatalf("errors.As() failed for %T", err)
	}
}

func TestErrorHelpers_NilPassesThrough(t *testing.T) {
	t.Parallel()

	if err := connectErr(nil); err != nil {
		t.Fatalf("connectErr(nil) = %v, want nil", err)
	}
	if err := opErr(nil); err != nil {
		t.Fatalf("opErr(nil) = %v, want nil", err)
	}
}
