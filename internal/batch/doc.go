// Package batch drives a whole run over one input directory.
//
// A run moves through selecting reference tracks on the representative file,
// sizing the worker pool, dispatching file jobs, and aggregating their
// outcomes into a Summary. Selection and sizing happen strictly before any
// job starts. Workers send outcomes over a single channel to one collector
// goroutine, which is the only writer of the processing state store.
//
// Failures of individual files never stop the run; they are recorded and
// listed in the summary. Configuration problems, an empty input directory,
// and a canceled selection end the run without a summary.
package batch
