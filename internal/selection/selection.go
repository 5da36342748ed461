package selection

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"mkvkeep/internal/catalog"
	"mkvkeep/internal/services"
)

// Step names a prompt in the selection sequence.
type Step string

const (
	StepAudio     Step = "audio"
	StepSubtitles Step = "subtitles"
)

// ErrBack asks Select to re-enter the previous step.
var ErrBack = errors.New("selection: back")

// Prompt describes one choice offered to a Selector.
type Prompt struct {
	Step  Step
	Label string
	// Tracks are the offered tracks in catalog order.
	Tracks []catalog.Track
	// Suggested is the default answer for non-interactive selectors.
	Suggested []catalog.Track
	// Min is the smallest acceptable number of chosen tracks.
	Min int
}

// Selector answers prompts.
type Selector interface {
	Choose(ctx context.Context, prompt Prompt) ([]catalog.Track, error)
}

// Selection is the reference track set chosen on the representative file.
type Selection struct {
	Source    string
	Audio     []catalog.Track
	Subtitles []catalog.Track
}

// MainSubtitle returns the designated main subtitle, the first selected.
func (s Selection) MainSubtitle() (catalog.Track, bool) {
	if len(s.Subtitles) == 0 {
		return catalog.Track{}, false
	}
	return s.Subtitles[0], true
}

// PrimaryAudio returns the first selected audio track.
func (s Selection) PrimaryAudio() (catalog.Track, bool) {
	if len(s.Audio) == 0 {
		return catalog.Track{}, false
	}
	return s.Audio[0], true
}

// Select runs the audio and subtitle prompts against cat. Subtitle prompts are
// skipped when cat has no target-language subtitles.
func Select(ctx context.Context, selector Selector, cat *catalog.Catalog) (Selection, error) {
	if selector == nil {
		return Selection{}, services.Wrap(services.ErrConfiguration, "selection", "select", "no selector configured", nil)
	}
	audio := cat.Audio()
	if len(audio) == 0 {
		return Selection{}, services.Wrap(services.ErrNoMatchingTrack, "selection", "audio", cat.File+" has no audio tracks", nil)
	}
	suggestedAudio := cat.SourceAudio()
	if len(suggestedAudio) == 0 {
		suggestedAudio = audio[:1]
	}
	subtitles := cat.TargetSubtitles()
	var suggestedSubs []catalog.Track
	if len(subtitles) > 0 {
		suggestedSubs = subtitles[:1]
	}

	sel := Selection{Source: cat.File}
	step := StepAudio
	for {
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}
		switch step {
		case StepAudio:
			chosen, err := selector.Choose(ctx, Prompt{
				Step:      StepAudio,
				Label:     fmt.Sprintf("Audio tracks in %s", filepath.Base(cat.File)),
				Tracks:    audio,
				Suggested: suggestedAudio,
				Min:       1,
			})
			if errors.Is(err, ErrBack) {
				continue
			}
			if err != nil {
				return Selection{}, err
			}
			if len(chosen) == 0 {
				return Selection{}, services.Wrap(services.ErrSelectionCanceled, "selection", "audio", "at least one audio track is required", nil)
			}
			sel.Audio = chosen
			if len(subtitles) == 0 {
				sel.Subtitles = nil
				return sel, nil
			}
			step = StepSubtitles
		case StepSubtitles:
			chosen, err := selector.Choose(ctx, Prompt{
				Step:      StepSubtitles,
				Label:     fmt.Sprintf("Subtitle tracks in %s", filepath.Base(cat.File)),
				Tracks:    subtitles,
				Suggested: suggestedSubs,
			})
			if errors.Is(err, ErrBack) {
				step = StepAudio
				continue
			}
			if err != nil {
				return Selection{}, err
			}
			sel.Subtitles = chosen
			return sel, nil
		}
	}
}

// pick returns the tracks of offered whose IDs are listed, in the order listed.
func pick(offered []catalog.Track, ids []int) ([]catalog.Track, error) {
	byID := make(map[int]catalog.Track, len(offered))
	for _, track := range offered {
		byID[track.ID] = track
	}
	out := make([]catalog.Track, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		track, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("track %d is not offered", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, track)
	}
	return out, nil
}
