package catalog

import (
	"strings"
	"testing"
)

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain ascii", "Full Subs", "Full Subs"},
		{"proper utf8", "Français", "Français"},
		{"japanese", "日本語", "日本語"},
		{"mojibake repaired", "FranÃ§ais", "Français"},
		{"invalid utf8 as windows-1252", "Fran\xe7ais", "Français"},
		{"empty", "", UnreadableName},
		{"blank", "   ", UnreadableName},
		{"control only", "\x01\x02", UnreadableName},
		{"replacement only", "��", UnreadableName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeName(tt.raw); got != tt.want {
				t.Fatalf("DecodeName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTrackLabel(t *testing.T) {
	track := Track{ID: 4, Role: RoleSubtitle, Language: "fre", Codec: "SubStationAlpha", Name: "French"}
	label := track.Label()
	for _, fragment := range []string{"#4", "French", "SubStationAlpha"} {
		if !strings.Contains(label, fragment) {
			t.Fatalf("expected %q in %q", fragment, label)
		}
	}
}
