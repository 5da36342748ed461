// Package job processes one input file: it checks destination space,
// re-reads the file's catalog, maps the reference selection onto local track
// IDs, and runs mkvmerge to write the trimmed copy.
//
// A Runner never touches the processing state store. It reports an Outcome
// and leaves recording to the batch collector.
package job
