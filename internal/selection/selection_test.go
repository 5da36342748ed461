package selection_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"mkvkeep/internal/catalog"
	"mkvkeep/internal/config"
	"mkvkeep/internal/selection"
	"mkvkeep/internal/services"
)

const sample = `{"tracks": [
  {"id": 0, "type": "video", "codec": "AVC/H.264"},
  {"id": 1, "type": "audio", "codec": "AAC", "properties": {"language": "jpn", "track_name": "Japanese"}},
  {"id": 2, "type": "audio", "codec": "AAC", "properties": {"language": "fre", "track_name": "French Dub"}},
  {"id": 3, "type": "subtitles", "codec": "SubStationAlpha", "properties": {"language": "fre", "track_name": "French"}},
  {"id": 4, "type": "subtitles", "codec": "SubStationAlpha", "properties": {"language": "fre", "track_name": "Signs"}}
]}`

func parse(t *testing.T, doc string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse("/media/show/ep01.mkv", []byte(doc), config.Languages{
		AudioSource:    []string{"jpn", "ja"},
		SubtitleTarget: []string{"fre", "fr"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cat
}

func trackIDs(tracks []catalog.Track) []int {
	out := make([]int, 0, len(tracks))
	for _, track := range tracks {
		out = append(out, track.ID)
	}
	return out
}

type scripted struct {
	answers []func(selection.Prompt) ([]catalog.Track, error)
	prompts []selection.Step
}

func (s *scripted) Choose(_ context.Context, prompt selection.Prompt) ([]catalog.Track, error) {
	s.prompts = append(s.prompts, prompt.Step)
	next := s.answers[0]
	s.answers = s.answers[1:]
	return next(prompt)
}

func TestSelectBackReentersAudio(t *testing.T) {
	cat := parse(t, sample)
	sel := &scripted{answers: []func(selection.Prompt) ([]catalog.Track, error){
		func(p selection.Prompt) ([]catalog.Track, error) { return p.Tracks[1:], nil },
		func(selection.Prompt) ([]catalog.Track, error) { return nil, selection.ErrBack },
		func(p selection.Prompt) ([]catalog.Track, error) { return p.Tracks[:1], nil },
		func(p selection.Prompt) ([]catalog.Track, error) { return p.Tracks, nil },
	}}

	got, err := selection.Select(context.Background(), sel, cat)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	wantSteps := []selection.Step{selection.StepAudio, selection.StepSubtitles, selection.StepAudio, selection.StepSubtitles}
	if len(sel.prompts) != len(wantSteps) {
		t.Fatalf("unexpected prompts: %v", sel.prompts)
	}
	for i := range wantSteps {
		if sel.prompts[i] != wantSteps[i] {
			t.Fatalf("unexpected prompts: %v", sel.prompts)
		}
	}
	if ids := trackIDs(got.Audio); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("unexpected audio: %v", ids)
	}
	main, ok := got.MainSubtitle()
	if !ok || main.ID != 3 {
		t.Fatalf("expected main subtitle 3, got %+v", main)
	}
}

func TestSelectCancel(t *testing.T) {
	cat := parse(t, sample)
	sel := &scripted{answers: []func(selection.Prompt) ([]catalog.Track, error){
		func(selection.Prompt) ([]catalog.Track, error) {
			return nil, services.Wrap(services.ErrSelectionCanceled, "selection", "audio", "", nil)
		},
	}}
	_, err := selection.Select(context.Background(), sel, cat)
	if !errors.Is(err, services.ErrSelectionCanceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
}

func TestSelectSkipsSubtitlesWhenNoneOffered(t *testing.T) {
	cat := parse(t, `{"tracks": [{"id": 1, "type": "audio", "codec": "AAC", "properties": {"language": "jpn"}}]}`)
	sel := &scripted{answers: []func(selection.Prompt) ([]catalog.Track, error){
		func(p selection.Prompt) ([]catalog.Track, error) { return p.Tracks, nil },
	}}
	got, err := selection.Select(context.Background(), sel, cat)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got.Subtitles) != 0 || len(sel.prompts) != 1 {
		t.Fatalf("expected audio prompt only, got %v", sel.prompts)
	}
}

func TestSelectRequiresAudioTracks(t *testing.T) {
	cat := parse(t, `{"tracks": [{"id": 0, "type": "video", "codec": "AVC"}]}`)
	_, err := selection.Select(context.Background(), selection.Preset{}, cat)
	if !errors.Is(err, services.ErrNoMatchingTrack) {
		t.Fatalf("expected no matching track, got %v", err)
	}
}

func TestPresetSelector(t *testing.T) {
	cat := parse(t, sample)

	tests := []struct {
		name      string
		preset    selection.Preset
		wantAudio []int
		wantSubs  []int
		wantErr   error
	}{
		{name: "suggested", preset: selection.Preset{}, wantAudio: []int{1}, wantSubs: []int{3}},
		{name: "explicit", preset: selection.Preset{AudioIDs: []int{2, 1}, SubtitleIDs: []int{4}}, wantAudio: []int{2, 1}, wantSubs: []int{4}},
		{name: "no subtitles", preset: selection.Preset{NoSubtitles: true}, wantAudio: []int{1}},
		{name: "unknown id", preset: selection.Preset{AudioIDs: []int{3}}, wantErr: services.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selection.Select(context.Background(), tt.preset, cat)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if a, b := trackIDs(got.Audio), tt.wantAudio; !equal(a, b) {
				t.Fatalf("audio: got %v want %v", a, b)
			}
			if a, b := trackIDs(got.Subtitles), tt.wantSubs; !equal(a, b) {
				t.Fatalf("subtitles: got %v want %v", a, b)
			}
		})
	}
}

func TestTerminalSelector(t *testing.T) {
	cat := parse(t, sample)
	in := strings.NewReader("9\n1, 2\nb\n\n\nnone\n")
	var out bytes.Buffer

	got, err := selection.Select(context.Background(), selection.NewTerminal(in, &out), cat)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	// 9 is rejected, 1,2 is replaced after stepping back, and the empty
	// answers accept the suggestions.
	if ids := trackIDs(got.Audio); !equal(ids, []int{1}) {
		t.Fatalf("unexpected audio: %v", ids)
	}
	if ids := trackIDs(got.Subtitles); !equal(ids, []int{3}) {
		t.Fatalf("unexpected subtitles: %v", ids)
	}
	if !strings.Contains(out.String(), "track 9 is not offered") {
		t.Fatalf("expected rejection message, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "French Dub") {
		t.Fatalf("expected track table, got:\n%s", out.String())
	}
}

func TestTerminalSelectorQuit(t *testing.T) {
	cat := parse(t, sample)
	_, err := selection.Select(context.Background(), selection.NewTerminal(strings.NewReader("q\n"), &bytes.Buffer{}), cat)
	if !errors.Is(err, services.ErrSelectionCanceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
}

func TestTerminalSelectorClosedInput(t *testing.T) {
	cat := parse(t, sample)
	_, err := selection.Select(context.Background(), selection.NewTerminal(strings.NewReader(""), &bytes.Buffer{}), cat)
	if !errors.Is(err, services.ErrSelectionCanceled) {
		t.Fatalf("expected cancel on closed input, got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := selection.ParseIDs("1, 2 3")
	if err != nil || !equal(ids, []int{1, 2, 3}) {
		t.Fatalf("unexpected ids %v err %v", ids, err)
	}
	if _, err := selection.ParseIDs("1,x"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
