package mkvmerge

import (
	"errors"
	"strconv"
	"strings"
)

// MuxRequest describes one track-filtering remux. The first entry of each
// track list is flagged as the default track of its type.
type MuxRequest struct {
	InputPath        string
	OutputPath       string
	AudioTrackIDs    []int
	SubtitleTrackIDs []int
}

// Validate checks the request is runnable.
func (r MuxRequest) Validate() error {
	if strings.TrimSpace(r.InputPath) == "" {
		return errors.New("input path is required")
	}
	if strings.TrimSpace(r.OutputPath) == "" {
		return errors.New("output path is required")
	}
	if r.InputPath == r.OutputPath {
		return errors.New("output path must differ from input path")
	}
	if len(r.AudioTrackIDs) == 0 {
		return errors.New("at least one audio track is required")
	}
	return nil
}

// BuildMuxArgs constructs the mkvmerge argument list, input path last.
func BuildMuxArgs(req MuxRequest) []string {
	args := []string{"-o", req.OutputPath}
	args = append(args, "--audio-tracks", joinIDs(req.AudioTrackIDs))
	if len(req.SubtitleTrackIDs) > 0 {
		args = append(args, "--subtitle-tracks", joinIDs(req.SubtitleTrackIDs))
	} else {
		args = append(args, "--no-subtitles")
	}
	if len(req.AudioTrackIDs) > 0 {
		args = append(args, "--default-track", strconv.Itoa(req.AudioTrackIDs[0])+":yes")
	}
	if len(req.SubtitleTrackIDs) > 0 {
		args = append(args, "--default-track", strconv.Itoa(req.SubtitleTrackIDs[0])+":yes")
	}
	return append(args, req.InputPath)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
