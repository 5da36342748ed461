package textutil

import "strings"

// WordSet lowercases text and splits it on whitespace into a set of words.
func WordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}

// WordSimilarity returns |A∩B| / max(|A|,|B|) over the whitespace word sets of
// a and b. Returns 0 when both are empty.
func WordSimilarity(a, b string) float64 {
	setA := WordSet(a)
	setB := WordSet(b)
	denominator := max(len(setA), len(setB))
	if denominator == 0 {
		return 0
	}
	common := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			common++
		}
	}
	return float64(common) / float64(denominator)
}
