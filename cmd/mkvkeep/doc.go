// Command mkvkeep keeps only the chosen audio and subtitle tracks across a
// directory of Matroska files by running mkvmerge on each of them in parallel.
//
// Typical use:
//
//	mkvkeep run ~/Anime/Show
//	mkvkeep run ~/Anime/Show --audio 1 --subtitles 3 --yes
//	mkvkeep state show
package main
