// Package store persists fingerprint aggregates into SQLite and
// reconstructs them on demand.
//
// One logical fingerprint decomposes into rows across three tables:
//
//   - fingerprints: one row per (hash, instance)
//   - fingerprint_usage: one row per (hash, instance, job, build number)
//   - fingerprint_facets: one row per (hash, instance, facet name)
//
// Every row carries the instance identity, so multiple independent
// deployments can share one physical database without collision.
//
// Save replaces the whole row set for a hash in a single transaction
// (delete, then insert); there is no row-level update path. Load fetches
// the fingerprint row with its usage and facet rows pre-aggregated as JSON
// in the same query, then reassembles the aggregate through the codec in
// one pass.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout: wait for locks instead of failing immediately
//   - foreign_keys=ON: usage and facet rows cascade on fingerprint delete
//
// Schema creation is guarded by a process-wide flag but every DDL
// statement is create-if-absent, so concurrent initializers racing on the
// same database file are safe regardless of the guard.
package store
