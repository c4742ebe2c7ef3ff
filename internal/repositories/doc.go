// Package repositories implements SQLite persistence for listening history.
//
// Key Implementations:
//   - [PlayRepository] : append-only play log with idempotent inserts and windowed aggregates
//   - [PlaylistRepository] : playlist display metadata cache with upsert semantics
//
// Windowed queries take a lower bound in epoch seconds and include plays at exactly that instant.
// Optional text columns are written as NULL when empty and read back as empty strings.
package repositories
