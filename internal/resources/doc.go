// Package resources samples host CPU and memory and derives how many mkvmerge
// processes a batch may run at once.
package resources
