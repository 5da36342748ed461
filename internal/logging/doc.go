// Package logging assembles structured slog loggers and formatting helpers used
// across mkvkeep.
//
// It owns the console and JSON handlers, fans records out to the terminal and
// the persistent log file, and exposes context-aware helpers so job code can
// tag log lines with the run ID, file name, and worker index. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
