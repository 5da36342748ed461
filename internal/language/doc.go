// Package language maps track language codes to display names and provides the
// raw-code membership test used to classify tracks.
package language
