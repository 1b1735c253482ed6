// Package store persists the taxon catalog, observations, identifications and
// agreements in SQLite (modernc.org/sqlite) or Postgres (pgx).
//
// Queries are written once with "?" placeholders and rebound for Postgres.
// Lookups return (nil, nil) when a row does not exist. Writes that touch an
// observation's identifications go through ApplyOutcome so a lifecycle event
// and the consensus it produces land in one transaction, and
// WithObservationLock serializes read-modify-write cycles across processes
// sharing the same data directory.
package store
