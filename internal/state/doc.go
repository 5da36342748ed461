// Package state persists which files a batch has processed and which failed.
//
// The Store keeps the sets in memory and writes the full document through its
// backend after every mutation, so an interrupted run loses at most the jobs
// still in flight. Two backends exist: a JSON document (the default) and a
// SQLite database. Either way a lock file beside the state path keeps a second
// mkvkeep process from writing concurrently.
//
// Within one process the Store is safe for concurrent use, but the batch
// orchestrator funnels all writes through a single collector goroutine.
package state
