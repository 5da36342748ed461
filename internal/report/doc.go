// Package report renders batch progress and summaries: a go-pretty summary
// table, an mpb progress bar for interactive terminals, and an ntfy push
// through the notifications service.
package report
