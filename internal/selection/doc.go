// Package selection collects the reference tracks for a batch run.
//
// A Selector answers one Prompt at a time: audio first (at least one track),
// then target-language subtitles (possibly none). Selectors may step back to
// the previous prompt with ErrBack or abandon the run with
// services.ErrSelectionCanceled. Select drives that exchange and returns a
// read-only Selection.
//
// Two selectors ship with the package: Terminal renders a go-pretty table and
// reads choices from a line-oriented reader, and Preset answers from
// pre-supplied track IDs for non-interactive runs.
package selection
