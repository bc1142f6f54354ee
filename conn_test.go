package stmtpool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestConnExec_PreparesThenExecutes(t *testing.T) {
	t.Parallel()

	driver := &TestDriverConn{}
	conn := NewConn(driver, 10)

	n, err := conn.Exec(context.Background(), "UPDATE t SET x = $1", 7)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Exec() rows = %d, want 1", n)
	}

	if len(driver.Journal) < 2 {
		t.Fatalf("journal = %v, want prepare then exec", driver.Journal)
	}
	if driver.Journal[0] != "prepare UPDATE t SET x = $1" {
		t.Fatalf("journal[0] = %q, want prepare entry", driver.Journal[0])
	}
	if !strings.HasPrefix(driver.Journal[1], "exec ") {
		t.Fatalf("journal[1] = %q, want exec entry", driver.Journal[1])
	}
}

func TestConnExec_ExecutesByStatementName(t *testing.T) {
	t.Parallel()

	driver := &TestDriverConn{}
	conn := NewConn(driver, 10)

	if _, err := conn.Exec(context.Background(), "UPDATE t SET x = $1", 7); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := "exec " + stmtName("UPDATE t SET x = $1")
	if !journalContains(driver.Journal, want) {
		t.Fatalf("journal %v missing %q", driver.Journal, want)
	}
}

func TestConnBatchExecute_BypassesCacheAndPrepare(t *testing.T) {
	t.Parallel()

	driver := &TestDriverConn{}
	conn := NewConn(driver, 10)

	if err := conn.BatchExecute(context.Background(), "CREATE TABLE a (); CREATE TABLE b ()"); err != nil {
		t.Fatalf("BatchExecute() error = %v", err)
	}

	if driver.PrepareCalls != 0 {
		t.Fatalf("driver PrepareCalls = %d, want 0", driver.PrepareCalls)
	}
	if got := conn.cache.len(); got != 0 {
		t.Fatalf("cache len = %d, want 0", got)
	}
	if driver.Journal[0] != "batch CREATE TABLE a (); CREATE TABLE b ()" {
		t.Fatalf("journal[0] = %q, want batch entry", driver.Journal[0])
	}
}

func TestConnPrepareCopyIn_BypassesCache(t *testing.T) {
	t.Parallel()

	driver := &TestDriverConn{}
	conn := NewConn(driver, 10)

	copyIn, err := conn.PrepareCopyIn("measurements", []string{"ts", "value"})
	if err != nil {
		t.Fatalf("PrepareCopyIn() error = %v", err)
	}

	n, err := copyIn.ExecRows(context.Background(), [][]any{{1, 1.5}, {2, 2.5}})
	if err != nil {
		t.Fatalf("ExecRows() error = %v", err)
	}
	_ = n

	if driver.PrepareCalls != 0 {
		t.Fatalf("driver PrepareCalls = %d, want 0", driver.PrepareCalls)
	}
	if got := conn.cache.len(); got != 0 {
		t.Fatalf("cache len = %d, want 0", got)
	}
	if !journalContains(driver.Journal, `copy "measurements"`) {
		t.Fatalf("journal %v missing copy entry", driver.Journal)
	}
}

func TestConnClose_DrainsCacheBeforeDriverClose(t *testing.T) {
	t.Parallel()

	driver := &TestDriverConn{}
	conn := NewConn(driver, 10)
	ctx := context.Background()

	for _, q := range []string{"SELECT 1", "SELECT 2", "SELECT 3"} {
		st, err := conn.Prepare(ctx, q)
		if err != nil {
			t.Fatalf("Prepare(%q) error = %v", q, err)
		}
		_ = st.Close(ctx)
	}

	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var deallocates int
	closeIdx := -1
	for i, entry := range driver.Journal {
		switch {
		case strings.HasPrefix(entry, "deallocate "):
			deallocates++
			if closeIdx >= 0 {
				t.Fatalf("journal %v: deallocate after close", driver.Journal)
			}
		case entry == "close":
			closeIdx = i
		}
	}
	if deallocates != 3 {
		t.Fatalf("journal %v: %d deallocates, want 3", driver.Journal, deallocates)
	}
	if closeIdx != len(driver.Journal)-1 {
		t.Fatalf("journal %v: close is not the final driver call", driver.Journal)
	}
}

func TestConnClose_OutstandingHandleFailsAfterwards(t *testing.T) {
	t.Parallel()

	driver := &TestDriverConn{}
	conn := NewConn(driver, 10)
	ctx := context.Background()

	st, err := conn.Prepare(ctx, "SELECT 1")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := st.Exec(ctx); !errors.Is(err, ErrStatementClosed) {
		t.Fatalf("Exec() after conn close error = %v, want ErrStatementClosed", err)
	}
	if _, err := st.Query(ctx); !errors.Is(err, ErrStatementClosed) {
		t.Fatalf("Query() after conn close error = %v, want ErrStatementClosed", err)
	}
	// Releasing the stale handle is a quiet no-op.
	if err := st.Close(ctx); err != nil {
		t.Fatalf("Statement.Close() after conn close error = %v", err)
	}
	// No deallocate for the held handle: the session took it along.
	want := "deallocate " + stmtName("SELECT 1")
	if journalContains(driver.Journal, want) {
		t.Fatalf("journal %v contains %q, want none for a handle held across close", driver.Journal, want)
	}
}

func TestConnClose_Idempotent(t *testing.T) {
	t.Parallel()

	driver := &TestDriverConn{}
	conn := NewConn(driver, 10)
	ctx := context.Background()

	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := conn.Close(ctx); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	var closes int
	for _, entry := range driver.Journal {
		if entry == "close" {
			closes++
		}
	}
	if closes != 1 {
		t.Fatalf("driver closed %d times, want 1", closes)
	}
}

func TestConn_OperationsAfterCloseReturnErrConnClosed(t *testing.T) {
	t.Parallel()

	conn := NewConn(&TestDriverConn{}, 10)
	ctx := context.Background()
	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := conn.Prepare(ctx, "SELECT 1"); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("Prepare() error = %v, want ErrConnClosed", err)
	}
	if _, err := conn.Exec(ctx, "SELECT 1"); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("Exec() error = %v, want ErrConnClosed", err)
	}
	if err := conn.BatchExecute(ctx, ""); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("BatchExecute() error = %v, want ErrConnClosed", err)
	}
	if _, err := conn.PrepareCopyIn("t", nil); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("PrepareCopyIn() error = %v, want ErrConnClosed", err)
	}
	if _, err := conn.Begin(ctx); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("Begin() error = %v, want ErrConnClosed", err)
	}
}

func TestStatementClose_EvictedStatementDeallocatesOnLastRelease(t *testing.T) {
	t.Parallel()

	driver := &TestDriverConn{}
	conn := NewConn(driver, 1)
	ctx := context.Background()

	held, err := conn.Prepare(ctx, "SELECT 'a'")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	// Evicts 'a' from the cache while the caller still holds it.
	st, err := conn.Prepare(ctx, "SELECT 'b'")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	_ = st.Close(ctx)

	wantDealloc := "deallocate " + stmtName("SELECT 'a'")
	if journalContains(driver.Journal, wantDealloc) {
		t.Fatalf("journal %v: evicted statement deallocated while still held", driver.Journal)
	}

	// The held handle still works after eviction.
	if _, err := held.Exec(ctx); err != nil {
		t.Fatalf("Exec() on evicted-but-held statement error = %v", err)
	}

	if err := held.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !journalContains(driver.Journal, wantDealloc) {
		t.Fatalf("journal %v missing %q after last release", driver.Journal, wantDealloc)
	}

	// The handle is spent now.
	if _, err := held.Exec(ctx); !errors.Is(err, ErrStatementClosed) {
		t.Fatalf("Exec() after final release error = %v, want ErrStatementClosed", err)
	}
}
