package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"mkvkeep/internal/config"
	"mkvkeep/internal/language"
	"mkvkeep/internal/services"
)

// identification mirrors the subset of `mkvmerge -J` output the catalog reads.
type identification struct {
	Tracks []struct {
		ID         int    `json:"id"`
		Type       string `json:"type"`
		Codec      string `json:"codec"`
		Properties struct {
			Language     string `json:"language"`
			TrackName    string `json:"track_name"`
			DefaultTrack bool   `json:"default_track"`
			ForcedTrack  bool   `json:"forced_track"`
		} `json:"properties"`
	} `json:"tracks"`
	Errors []string `json:"errors"`
}

// Catalog is the ordered track list of one file plus its derived groups.
type Catalog struct {
	File   string
	Tracks []Track

	audioSource    []string
	subtitleTarget []string
}

// Parse decodes identification JSON. Invalid documents are marked ErrCatalog.
func Parse(file string, data []byte, langs config.Languages) (*Catalog, error) {
	var doc identification
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "parse", file, err)
	}
	if doc.Tracks == nil && len(doc.Errors) > 0 {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "parse", file+": "+strings.Join(doc.Errors, "; "), nil)
	}
	cat := &Catalog{
		File:           file,
		Tracks:         make([]Track, 0, len(doc.Tracks)),
		audioSource:    langs.AudioSource,
		subtitleTarget: langs.SubtitleTarget,
	}
	for _, raw := range doc.Tracks {
		lang := strings.ToLower(strings.TrimSpace(raw.Properties.Language))
		if lang == "" {
			lang = language.Unknown
		}
		cat.Tracks = append(cat.Tracks, Track{
			ID:       raw.ID,
			Role:     roleOf(raw.Type),
			Type:     raw.Type,
			Language: lang,
			Codec:    raw.Codec,
			Name:     raw.Properties.TrackName,
			Default:  raw.Properties.DefaultTrack,
			Forced:   raw.Properties.ForcedTrack,
		})
	}
	return cat, nil
}

func roleOf(trackType string) Role {
	switch trackType {
	case "audio":
		return RoleAudio
	case "subtitles":
		return RoleSubtitle
	default:
		return RoleOther
	}
}

// ByRole returns the tracks of role in catalog order.
func (c *Catalog) ByRole(role Role) []Track {
	var out []Track
	for _, track := range c.Tracks {
		if track.Role == role {
			out = append(out, track)
		}
	}
	return out
}

// Audio returns every audio track.
func (c *Catalog) Audio() []Track { return c.ByRole(RoleAudio) }

// Subtitles returns every subtitle track.
func (c *Catalog) Subtitles() []Track { return c.ByRole(RoleSubtitle) }

// SourceAudio returns audio tracks in the configured source languages.
func (c *Catalog) SourceAudio() []Track {
	return c.filter(RoleAudio, c.audioSource)
}

// TargetSubtitles returns subtitle tracks in the configured target languages.
func (c *Catalog) TargetSubtitles() []Track {
	return c.filter(RoleSubtitle, c.subtitleTarget)
}

// RemovableAudio returns audio tracks in the target languages; these are the
// dubbed tracks a run is expected to drop.
func (c *Catalog) RemovableAudio() []Track {
	return c.filter(RoleAudio, c.subtitleTarget)
}

// Track looks up a track by its file-local ID.
func (c *Catalog) Track(id int) (Track, bool) {
	for _, track := range c.Tracks {
		if track.ID == id {
			return track, true
		}
	}
	return Track{}, false
}

func (c *Catalog) filter(role Role, codes []string) []Track {
	var out []Track
	for _, track := range c.Tracks {
		if track.Role == role && language.Contains(codes, track.Language) {
			out = append(out, track)
		}
	}
	return out
}

// Identifier runs a metadata query against a file.
type Identifier interface {
	Identify(ctx context.Context, path string) ([]byte, error)
}

// Reader builds catalogs by querying files through an Identifier.
type Reader struct {
	identifier Identifier
	languages  config.Languages
}

// NewReader constructs a Reader using the language sets from cfg.
func NewReader(identifier Identifier, langs config.Languages) *Reader {
	return &Reader{identifier: identifier, languages: langs}
}

// Read queries path and parses the result.
func (r *Reader) Read(ctx context.Context, path string) (*Catalog, error) {
	data, err := r.identifier.Identify(ctx, path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data, r.languages)
}
