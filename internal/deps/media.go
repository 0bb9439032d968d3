package deps

import "strings"

// ResolveBinary returns configured when set, otherwise the default name.
func ResolveBinary(configured, name string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	return name
}

// MediaRequirements lists the binaries the media pipeline executes.
func MediaRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ResolveBinary(ffmpeg, "ffmpeg"),
			Description: "Required for remuxing lessons and extracting thumbnails",
		},
		{
			Name:        "FFprobe",
			Command:     ResolveBinary(ffprobe, "ffprobe"),
			Description: "Required for subtitle stream detection",
		},
	}
}
