// Package repositories implements the SQLite cache that lets list views work offline.
//
// Key Implementations:
//   - [SnapshotRepository] : the last collection fetched per entity kind and owner, stored as JSON payloads
//   - [SearchRepository] : recent queries per entity kind, newest first
//
// Snapshots are soft deleted via deleted_at and excluded from queries by default. Sequence numbers keep the
// server's order of a cached collection; [NextSequence] atomically increments per-table counters held in
// dedicated sequence tables.
package repositories
