// Package services defines shared utilities consumed by the file job, the
// batch orchestrator, and the mkvmerge integration.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, file names, and worker indexes for
//     logging.
//   - Structured error markers plus the Wrap helper, and Kind, which maps a
//     failure to the label recorded next to the file in the state store.
//
// Use these helpers when wiring new pipeline steps so failure reporting stays
// uniform across the batch.
package services
