// Package textutil provides the word-overlap similarity used to pair track
// names across files.
//
// Names are lowercased and split on whitespace; punctuation is kept as part of
// a word so "Full" and "Full," are distinct.
package textutil
