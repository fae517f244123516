// Package store provides SQLite-backed durable storage for brainplus runs.
//
// The store is an append-only log of:
//   - Programs: source text keyed by its content-addressed ID
//   - Runs: one record per execution, referencing its program
//
// Ordering uses a logical seq assigned inside the write transaction,
// never wall time. Every list query orders by seq ASC, id ASC COLLATE
// BINARY so repeated reads return identical results.
//
// Traces are stored as canonical JSON compressed with zstd.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
