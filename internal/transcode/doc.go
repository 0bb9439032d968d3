// Package transcode describes and runs ffmpeg invocations.
//
// A Builder accumulates the decisions made for one lesson (subtitle source,
// metadata, cover image, output path) and renders them into an immutable
// Command only when Build is called. Commands never change after Build, so a
// Command can be logged, recorded and executed without defensive copies by
// the caller.
//
// Two shapes exist: a stream-copy remux into Matroska, and a reduced
// single-frame extraction used to produce a lesson thumbnail.
package transcode
