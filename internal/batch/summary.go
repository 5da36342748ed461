package batch

import (
	"sort"
	"time"

	"mkvkeep/internal/selection"
)

// Failure is one failed file of a run.
type Failure struct {
	Name   string
	Kind   string
	Reason string
}

// Summary is the aggregated result of a run.
type Summary struct {
	RunID          string
	InputDir       string
	OutputDir      string
	Representative string
	Selection      selection.Selection
	Phase          Phase

	Total       int
	Processed   int
	Skipped     int
	Failed      int
	NotStarted  int
	Parallelism int
	Failures    []Failure

	InitialSize int64
	FinalSize   int64
	Elapsed     time.Duration
	Interrupted bool
}

// Succeeded counts files that are done after the run, including files
// skipped because an earlier run completed them.
func (s Summary) Succeeded() int {
	return s.Processed + s.Skipped
}

// SavedBytes is the difference between input and output sizes.
func (s Summary) SavedBytes() int64 {
	return s.InitialSize - s.FinalSize
}

// SavedPercent is SavedBytes relative to the input size, 0 for empty input.
func (s Summary) SavedPercent() float64 {
	if s.InitialSize <= 0 {
		return 0
	}
	return float64(s.SavedBytes()) / float64(s.InitialSize) * 100
}

func sortFailures(failures []Failure) {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Name < failures[j].Name
	})
}
