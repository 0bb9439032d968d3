// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Inspector: the interface the media pipeline consumes
//   - Binary: runs the ffprobe executable with an injectable runner
//   - Result: parsed streams and format metadata
//
// The pipeline only needs to know whether a source already carries a
// subtitle stream; the remaining helpers feed the show and status commands.
package ffprobe
