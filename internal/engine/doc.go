// Package engine hosts the record store behind a single-writer loop.
//
// Callers submit requests (instantiate, query, transaction) from any
// goroutine; Engine.Run serves them one at a time in FIFO order. Each
// request runs the contract against a storage.Overlay, so a failed call
// leaves no trace. Transactions and the constructor are committed to the
// SQLite store together with a journal row stamped by the logical clock;
// queries are dry runs and are dropped.
//
// Replay re-executes the journal against an in-memory backend and checks
// that every recorded output and the final state digest reproduce.
//
// Sequence numbers come from Clock, never from wall time. Journal rows are
// read back ORDER BY seq ASC, id ASC so replay order is fixed.
package engine
