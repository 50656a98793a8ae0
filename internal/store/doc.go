// Package store provides SQLite-backed durable storage for forgeplan.
//
// The store holds two kinds of records:
//   - Catalogs: compiled items, factories and recipes, saved by name
//   - Query history: every recorded planning query with its ranked plans
//
// # Ordering
//
// Catalog rows carry an ord column holding registration order. Queries carry
// a logical seq assigned at insert time; history reads ORDER BY seq, never by
// wall time. All reads are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Plans are stored as RFC 8785 canonical JSON with a domain-separated digest
// computed by ir.PlanDigest.
package store
