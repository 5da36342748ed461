// Package preflight provides readiness checks for the mkvmerge executable and
// the filesystem paths mkvkeep writes to.
//
// The CLI "mkvkeep check" command prints every result; "mkvkeep run" calls
// RunAll first and refuses to start when a required check fails, so a batch
// does not discover a missing binary one file at a time.
package preflight
