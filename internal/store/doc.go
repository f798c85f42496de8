// Package store provides SQLite-backed durable storage for the record store.
//
// Two tables:
//   - cells: the contract's key-value storage (implements storage.Backend)
//   - calls: an append-only journal of committed calls
//
// Commit applies a call's storage writes and appends its journal row in one
// SQL transaction, so the journal never disagrees with the cells.
//
// # Ordering
//
// Journal reads use ORDER BY seq ASC, id COLLATE BINARY ASC. seq comes from
// the engine's logical clock, never from wall time, so a journal replays the
// same way on every machine.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Either the cgo driver (mattn/go-sqlite3, "sqlite3") or the pure-Go driver
// (modernc.org/sqlite, "sqlite") can open the same file.
package store
