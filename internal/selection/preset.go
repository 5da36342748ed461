package selection

import (
	"context"

	"mkvkeep/internal/catalog"
	"mkvkeep/internal/services"
)

// Preset answers prompts from fixed track IDs. A nil ID list accepts the
// prompt's suggestion; NoSubtitles forces an empty subtitle answer.
type Preset struct {
	AudioIDs    []int
	SubtitleIDs []int
	NoSubtitles bool
}

// Choose implements Selector.
func (p Preset) Choose(_ context.Context, prompt Prompt) ([]catalog.Track, error) {
	var ids []int
	switch prompt.Step {
	case StepAudio:
		ids = p.AudioIDs
	case StepSubtitles:
		if p.NoSubtitles {
			return nil, nil
		}
		ids = p.SubtitleIDs
	}
	if len(ids) == 0 {
		if len(prompt.Suggested) < prompt.Min {
			return nil, services.Wrap(services.ErrSelectionCanceled, "selection", string(prompt.Step), "no suggested tracks", nil)
		}
		return prompt.Suggested, nil
	}
	chosen, err := pick(prompt.Tracks, ids)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "selection", string(prompt.Step), "", err)
	}
	return chosen, nil
}
