// Package stmtpool provides a pool of Postgres connections where each
// connection carries a bounded LRU cache of prepared statements, built on
// pgx v5 and puddle v2.
//
// Invariants:
//
//   - I1: a cached statement never outlives the connection that prepared it.
//   - I2: connection teardown drains the statement cache before the driver
//     connection is released; handles retained past teardown fail with
//     ErrStatementClosed instead of misbehaving.
//   - I3: a connection and its transactions are owned by one goroutine at a
//     time; concurrency comes from acquiring distinct pooled connections.
//   - I4: a desynchronized connection is destroyed, never revalidated or
//     returned to the pool.
//   - I5: caching is transparent to error semantics; a caller sees the same
//     errors whether a query path hit the cache or not.
//
// This package is driver-adjacent but application-independent. It exposes
// prepare/execute/transaction/bulk-copy primitives, not a query surface.
package stmtpool
