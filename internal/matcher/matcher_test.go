package matcher

import (
	"testing"

	"mkvkeep/internal/catalog"
)

func sub(id int, lang, codec, name string) catalog.Track {
	return catalog.Track{ID: id, Role: catalog.RoleSubtitle, Language: lang, Codec: codec, Name: name}
}

func TestMatchExactTierBeatsFallback(t *testing.T) {
	reference := sub(4, "fre", "SubStationAlpha", "French")
	candidates := []catalog.Track{
		sub(2, "fre", "SubRip/SRT", "Signs"),
		sub(3, "fre", "SubRip/SRT", "Commentary"),
		sub(7, "fre", "SubStationAlpha", "french"),
	}

	result := Match(reference, candidates)
	if result.Tier != TierExact {
		t.Fatalf("expected exact tier, got %s", result.Tier)
	}
	if result.Track.ID != 7 {
		t.Fatalf("expected track 7, got %d", result.Track.ID)
	}
}

func TestMatchExactRequiresCodec(t *testing.T) {
	reference := sub(4, "fre", "SubStationAlpha", "French")
	candidates := []catalog.Track{
		sub(2, "fre", "SubRip/SRT", "Other"),
		sub(3, "fre", "SubRip/SRT", "French"),
	}
	result := Match(reference, candidates)
	if result.Tier != TierSubstring || result.Track.ID != 3 {
		t.Fatalf("expected substring match on 3, got %s %d", result.Tier, result.Track.ID)
	}
}

func TestMatchExactFirstInCatalogOrder(t *testing.T) {
	reference := sub(1, "fre", "SubRip/SRT", "Full")
	candidates := []catalog.Track{
		sub(5, "fre", "SubRip/SRT", "FULL"),
		sub(6, "fre", "SubRip/SRT", "full"),
	}
	if result := Match(reference, candidates); result.Track.ID != 5 {
		t.Fatalf("expected first tie to win, got %d", result.Track.ID)
	}
}

func TestMatchSubstringDirection(t *testing.T) {
	reference := sub(1, "fre", "SubRip/SRT", "Full")
	candidates := []catalog.Track{
		sub(2, "fre", "SubRip/SRT", "Signs"),
		sub(3, "fre", "SubRip/SRT", "Full Dialogue [Team]"),
	}
	result := Match(reference, candidates)
	if result.Tier != TierSubstring || result.Track.ID != 3 {
		t.Fatalf("expected substring on 3, got %s %d", result.Tier, result.Track.ID)
	}

	// Candidate name contained in the reference name is not a substring hit.
	reference = sub(1, "fre", "SubRip/SRT", "Full Dialogue [Team]")
	candidates = []catalog.Track{
		sub(2, "fre", "SubRip/SRT", "Signs"),
		sub(3, "fre", "SubRip/SRT", "Full"),
	}
	if result := Match(reference, candidates); result.Tier == TierSubstring {
		t.Fatalf("unexpected reverse substring match on %d", result.Track.ID)
	}
}

func TestMatchSimilarityBelowThresholdFallsBack(t *testing.T) {
	reference := sub(1, "fre", "SubStationAlpha", "Full Subs")
	candidates := []catalog.Track{
		sub(8, "fre", "SubRip/SRT", "Forced"),
		sub(9, "fre", "SubRip/SRT", "Full Subtitles"),
	}
	result := Match(reference, candidates)
	if result.Tier != TierFallback {
		t.Fatalf("expected fallback tier, got %s (similarity %.2f)", result.Tier, result.Similarity)
	}
	if result.Track.ID != 8 {
		t.Fatalf("fallback must pick first candidate, got %d", result.Track.ID)
	}
}

func TestMatchSimilarityAboveThreshold(t *testing.T) {
	reference := sub(1, "fre", "SubRip/SRT", "Signs and Songs")
	candidates := []catalog.Track{
		sub(2, "fre", "SubRip/SRT", "Dialogue"),
		sub(3, "fre", "SubRip/SRT", "Songs and Signs FR"),
		sub(4, "fre", "SubRip/SRT", "Signs Songs"),
	}
	result := Match(reference, candidates)
	if result.Tier != TierSimilarity {
		t.Fatalf("expected similarity tier, got %s", result.Tier)
	}
	// "signs songs" has 2/3 overlap; "songs and signs fr" has 3/4, which wins.
	if result.Track.ID != 3 {
		t.Fatalf("expected highest similarity track 3, got %d", result.Track.ID)
	}
}

func TestMatchEmptyPool(t *testing.T) {
	result := Match(sub(1, "fre", "SubRip/SRT", "French"), nil)
	if result.Found() || result.Tier != TierNone {
		t.Fatalf("expected no match, got %+v", result)
	}
}

func TestMatchEmptyReferenceNameSkipsSubstring(t *testing.T) {
	reference := sub(1, "fre", "AAC", "")
	candidates := []catalog.Track{
		sub(2, "fre", "SubRip/SRT", "Anything"),
		sub(3, "fre", "SubRip/SRT", "Else"),
	}
	result := Match(reference, candidates)
	if result.Tier != TierFallback || result.Track.ID != 2 {
		t.Fatalf("expected fallback on 2, got %s %d", result.Tier, result.Track.ID)
	}
}

func TestPoolPrefersSameLanguage(t *testing.T) {
	cat := &catalog.Catalog{Tracks: []catalog.Track{
		{ID: 1, Role: catalog.RoleAudio, Language: "jpn", Codec: "AAC"},
		sub(2, "eng", "SubRip/SRT", "English"),
		sub(3, "fre", "SubRip/SRT", "Français"),
	}}
	pool := Pool(sub(9, "fre", "SubRip/SRT", "French"), cat)
	if len(pool) != 1 || pool[0].ID != 3 {
		t.Fatalf("expected same-language pool, got %+v", pool)
	}
	pool = Pool(sub(9, "spa", "SubRip/SRT", "Spanish"), cat)
	if len(pool) != 2 {
		t.Fatalf("expected whole role pool when no language match, got %+v", pool)
	}
}

func TestResolveDropsDuplicates(t *testing.T) {
	cat := &catalog.Catalog{Tracks: []catalog.Track{
		sub(3, "fre", "SubStationAlpha", "French"),
		sub(4, "fre", "SubRip/SRT", "Forced"),
	}}
	refs := []catalog.Track{
		sub(10, "fre", "SubStationAlpha", "French"),
		sub(11, "fre", "SubRip/SRT", "Forced"),
		sub(12, "fre", "PGS", "Commentary"),
	}
	results := Resolve(refs, cat)
	if results[0].Track.ID != 3 || results[0].Tier != TierExact {
		t.Fatalf("unexpected main result: %+v", results[0])
	}
	if results[1].Track.ID != 4 {
		t.Fatalf("unexpected second result: %+v", results[1])
	}
	if results[2].Found() {
		t.Fatalf("fallback onto an already used track should be dropped: %+v", results[2])
	}
}
