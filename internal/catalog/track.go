package catalog

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"mkvkeep/internal/language"
)

// Role classifies a track.
type Role string

const (
	RoleAudio    Role = "audio"
	RoleSubtitle Role = "subtitle"
	RoleOther    Role = "other"
)

// UnreadableName is shown for tracks whose name is absent or cannot be decoded.
const UnreadableName = "name not readable"

// Track is one stream of a container file.
type Track struct {
	ID       int
	Role     Role
	Type     string // raw mkvmerge type (video, audio, subtitles, buttons)
	Language string // raw lowercase code, language.Unknown when absent
	Codec    string
	// Name is the raw track_name property, empty when absent.
	Name    string
	Default bool
	Forced  bool
}

// DisplayName returns a printable track name. See DecodeName.
func (t Track) DisplayName() string {
	return DecodeName(t.Name)
}

// LanguageName returns the human-readable language of the track.
func (t Track) LanguageName() string {
	return language.DisplayName(t.Language)
}

// Label is a one-line summary used in prompts and logs.
func (t Track) Label() string {
	return fmt.Sprintf("#%d %s [%s] %s", t.ID, t.LanguageName(), t.Codec, t.DisplayName())
}

// DecodeName returns a displayable form of a raw track name. The conversion
// is lossy and never fails:
//   - names that are UTF-8 text mis-read as Latin-1 are repaired;
//   - byte strings that are not valid UTF-8 are decoded as Windows-1252;
//   - empty or unprintable names become UnreadableName.
func DecodeName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return UnreadableName
	}
	name := raw
	if !utf8.ValidString(name) {
		decoded, _, err := transform.String(charmap.Windows1252.NewDecoder(), name)
		if err != nil {
			return UnreadableName
		}
		name = decoded
	} else if repaired, ok := repairMojibake(name); ok {
		name = repaired
	}
	if !printable(name) {
		return UnreadableName
	}
	return strings.TrimSpace(name)
}

// repairMojibake reverses a UTF-8 → Latin-1 misdecode ("FranÃ§ais" →
// "Français"). It reports false when name is not such a string.
func repairMojibake(name string) (string, bool) {
	encoded, _, err := transform.String(charmap.ISO8859_1.NewEncoder(), name)
	if err != nil || encoded == name || !utf8.ValidString(encoded) {
		return "", false
	}
	return encoded, true
}

func printable(name string) bool {
	visible := 0
	for _, r := range name {
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			visible++
		}
	}
	return visible > 0
}
