// Package mkvmerge wraps the MKVToolNix multiplexer: metadata queries in
// identification mode (-J) and track-filtering remux invocations.
//
// Every invocation goes through an injectable CommandRunner so tests can
// substitute canned output, and is bounded by the configured timeout.
package mkvmerge
