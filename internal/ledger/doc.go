// Package ledger records runs and their per-lesson outcomes in SQLite.
//
// Every invocation of the run workflow opens a run row keyed by a UUID,
// appends one item row per processed lesson, and closes the run with its
// counters and final status. The history command reads the same tables.
//
// The schema is embedded and versioned; a database written by a different
// schema version is rejected with ErrSchemaMismatch rather than migrated.
package ledger
