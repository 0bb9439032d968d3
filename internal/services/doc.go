// Package services defines shared utilities consumed by the run workflow and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and lesson paths
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     run-fatal (catalog, reconciliation, storage) or item-scoped (transcode).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
