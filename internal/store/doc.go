// Package store persists questions for the reference server.
//
// Questions live in a single SQLite table (modernc.org/sqlite, WAL mode, one
// connection). Timestamps are stored as fixed-width UTC text so ordering and
// range queries work on the column directly.
//
// Prune removes everything created before a cutoff, normally the start of the
// current day in the server's timezone. Callers may hand the pruned rows to
// an Archive, which appends them as zstd-compressed JSON lines to one file
// per day.
package store
