// Package pipeline turns reconciled (source, lesson) pairs into library
// files.
//
// Each pair runs through a fixed sequence of states: an optional thumbnail
// frame is extracted, the subtitle source is classified from the ffprobe
// stream table and a neighbouring .srt, an immutable remux command is built,
// and the command is submitted to the transcoder. A transcoder failure marks
// only that item as failed; the processor moves on to the next pair.
package pipeline
