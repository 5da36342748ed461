package selection

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"mkvkeep/internal/catalog"
	"mkvkeep/internal/services"
)

// Terminal prompts on out and reads answers line by line from in.
//
// Answers are comma- or space-separated track IDs. "b" steps back, "q"
// cancels, and an empty line accepts the suggested tracks.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal constructs a Terminal selector.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Choose implements Selector.
func (t *Terminal) Choose(ctx context.Context, prompt Prompt) ([]catalog.Track, error) {
	fmt.Fprintln(t.out, renderTracks(prompt))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(t.out, "Select %s tracks [%s] (ids, b=back, q=quit): ", prompt.Step, joinTrackIDs(prompt.Suggested))
		line, err := t.in.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			if err == io.EOF {
				return nil, services.Wrap(services.ErrSelectionCanceled, "selection", string(prompt.Step), "input closed", nil)
			}
			return nil, fmt.Errorf("read selection: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "q", "quit":
			return nil, services.Wrap(services.ErrSelectionCanceled, "selection", string(prompt.Step), "canceled by user", nil)
		case "b", "back":
			return nil, ErrBack
		case "":
			if len(prompt.Suggested) >= prompt.Min {
				return prompt.Suggested, nil
			}
			fmt.Fprintf(t.out, "Choose at least %d track(s).\n", prompt.Min)
			continue
		case "none", "-":
			if prompt.Min == 0 {
				return nil, nil
			}
			fmt.Fprintf(t.out, "Choose at least %d track(s).\n", prompt.Min)
			continue
		}
		ids, err := parseIDs(answer)
		if err != nil {
			fmt.Fprintln(t.out, err.Error())
			continue
		}
		chosen, err := pick(prompt.Tracks, ids)
		if err != nil {
			fmt.Fprintln(t.out, err.Error())
			continue
		}
		if len(chosen) < prompt.Min {
			fmt.Fprintf(t.out, "Choose at least %d track(s).\n", prompt.Min)
			continue
		}
		return chosen, nil
	}
}

func renderTracks(prompt Prompt) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(prompt.Label)
	tw.AppendHeader(table.Row{"ID", "Language", "Codec", "Name", "Flags"})
	for _, track := range prompt.Tracks {
		tw.AppendRow(table.Row{track.ID, track.LanguageName(), track.Codec, track.DisplayName(), flags(track)})
	}
	return tw.Render()
}

func flags(track catalog.Track) string {
	var parts []string
	if track.Default {
		parts = append(parts, "default")
	}
	if track.Forced {
		parts = append(parts, "forced")
	}
	return strings.Join(parts, ",")
}

// ParseIDs parses a comma- or space-separated list of track IDs.
func ParseIDs(value string) ([]int, error) {
	return parseIDs(value)
}

func parseIDs(value string) ([]int, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	ids := make([]int, 0, len(fields))
	for _, field := range fields {
		id, err := strconv.Atoi(field)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid track id %q", field)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinTrackIDs(tracks []catalog.Track) string {
	parts := make([]string, 0, len(tracks))
	for _, track := range tracks {
		parts = append(parts, strconv.Itoa(track.ID))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
