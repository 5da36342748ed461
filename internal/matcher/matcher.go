// Package matcher pairs a track chosen on the reference file with the
// equivalent track of another file.
//
// Matching is a heuristic. Tiers run in order and the first hit wins:
// exact name and codec, reference name contained in candidate name, word
// overlap above MinSimilarity, then the first candidate of the role. The
// fallback tier means a file with any track of the role always yields a
// match; only an empty pool yields none.
package matcher

import (
	"strings"

	"mkvkeep/internal/catalog"
	"mkvkeep/internal/textutil"
)

// Tier records which rule produced a match.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierSubstring
	TierSimilarity
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierSubstring:
		return "substring"
	case TierSimilarity:
		return "similarity"
	case TierFallback:
		return "fallback"
	default:
		return "none"
	}
}

// MinSimilarity is the exclusive lower bound for the similarity tier.
const MinSimilarity = 0.5

// Result is the outcome of one match.
type Result struct {
	Track      catalog.Track
	Tier       Tier
	Similarity float64
}

// Found reports whether a track was resolved.
func (r Result) Found() bool {
	return r.Tier != TierNone
}

// Match resolves reference against candidates, which must all share the
// reference's role and be in catalog order.
func Match(reference catalog.Track, candidates []catalog.Track) Result {
	if len(candidates) == 0 {
		return Result{}
	}
	refName := strings.ToLower(strings.TrimSpace(reference.Name))

	for _, candidate := range candidates {
		if strings.EqualFold(strings.TrimSpace(candidate.Name), refName) && candidate.Codec == reference.Codec {
			return Result{Track: candidate, Tier: TierExact, Similarity: 1}
		}
	}

	if refName != "" {
		for _, candidate := range candidates {
			if strings.Contains(strings.ToLower(candidate.Name), refName) {
				return Result{Track: candidate, Tier: TierSubstring}
			}
		}
	}

	best := -1
	bestScore := 0.0
	for i, candidate := range candidates {
		score := textutil.WordSimilarity(refName, candidate.Name)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best >= 0 && bestScore > MinSimilarity {
		return Result{Track: candidates[best], Tier: TierSimilarity, Similarity: bestScore}
	}

	return Result{Track: candidates[0], Tier: TierFallback, Similarity: bestScore}
}

// Pool returns the candidates for reference within cat: tracks of the same
// role, narrowed to the reference's language when at least one such track
// exists.
func Pool(reference catalog.Track, cat *catalog.Catalog) []catalog.Track {
	all := cat.ByRole(reference.Role)
	var sameLanguage []catalog.Track
	for _, track := range all {
		if track.Language == reference.Language {
			sameLanguage = append(sameLanguage, track)
		}
	}
	if len(sameLanguage) > 0 {
		return sameLanguage
	}
	return all
}

// Resolve matches each reference against cat and returns the results in
// reference order. Two references never resolve to the same local track;
// a duplicate is reported as TierNone.
func Resolve(references []catalog.Track, cat *catalog.Catalog) []Result {
	results := make([]Result, len(references))
	used := make(map[int]struct{}, len(references))
	for i, reference := range references {
		result := Match(reference, Pool(reference, cat))
		if result.Found() {
			if _, dup := used[result.Track.ID]; dup {
				result = Result{}
			} else {
				used[result.Track.ID] = struct{}{}
			}
		}
		results[i] = result
	}
	return results
}
