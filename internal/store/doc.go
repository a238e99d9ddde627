// Package store provides the SQLite handle that CSV sources are loaded into
// and that the lookup service reads from.
//
// Every loaded table is all-TEXT and is owned by exactly one load run at a
// time. The store offers the two relational operations a load needs:
//
//   - ReplaceTable: DROP TABLE IF EXISTS + CREATE TABLE + batched INSERTs,
//     all in one transaction. Readers see either the previous table or the
//     complete new one, never a partial row set.
//   - Introspection: TableExists, Columns, CountRows, ReadTable.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during a load
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - _txlock=immediate on the write handle: take the write lock at BEGIN
//
// Open returns a write handle limited to a single connection. OpenReadOnly
// returns a pooled, query-only handle for serving lookups.
//
// Identifiers passed to the store must already be sanitized; the store quotes
// them but does not validate them.
package store
