// Package catalog turns mkvmerge identification JSON into typed track records
// and classifies them by role and language.
//
// Track IDs are local to the file they were read from; a Catalog is built
// fresh for every file and never reused for another.
package catalog
