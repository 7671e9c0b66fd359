// Package store provides SQLite-backed storage for the analytics tables.
//
// The store holds three tables:
//   - categories: Category rows keyed by name
//   - data_points: DataPoint rows keyed by a 64-bit id, referencing categories(name)
//   - reducer_calls: append-only log of reducer calls, keyed by logical seq
//
// # Access Model
//
// The category and data point tables are never mutated outside a transaction.
// Store.Atomic opens one transaction and hands a *Tables bound to it to a
// callback; the callback's writes are committed together or not at all. The
// tables perform no invariant checking of their own beyond the foreign key:
// the engine package is the only writer and owns referential integrity.
//
// Reads that span both tables (Snapshot) run in a single read transaction so
// they never observe a half-applied reducer.
//
// # Encoding
//
//   - ids: uint64 stored bit-for-bit as INTEGER (int64 two's complement)
//   - timestamps: unix microseconds, UTC
//   - reducer args/results: JSON text
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce data_points.category references
package store
