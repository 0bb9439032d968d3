// Package workflow drives one course through every stage of a run.
//
// The Runner resolves the course tree from the catalog, stages the download
// in the course cache, splits archives, reconciles staged videos with the
// catalog's lesson order, remuxes each lesson, places documents, and
// finally removes the cache when nothing failed. Every run is recorded in
// the ledger and gets its own JSON log file below the log directory.
//
// Stages run strictly in sequence. A fatal error (catalog, storage, count
// mismatch) stops the run before further library changes; a failed lesson
// only marks that lesson and the run carries on.
package workflow
