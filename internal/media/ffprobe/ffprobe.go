package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"curator/internal/services"
)

// Inspector inspects a media file's stream table.
type Inspector interface {
	Inspect(ctx context.Context, path string) (Result, error)
}

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	CodecType   string      `json:"codec_type"`
	Disposition Disposition `json:"disposition"`
}

// Disposition carries the ffprobe disposition flags used here.
type Disposition struct {
	AttachedPic int `json:"attached_pic"`
}

type outputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Binary runs an ffprobe executable.
type Binary struct {
	path string
	run  outputRunner
}

var _ Inspector = (*Binary)(nil)

// Option customizes a Binary.
type Option func(*Binary)

// WithOutputRunner overrides how ffprobe is executed (primarily for tests).
func WithOutputRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) Option {
	return func(b *Binary) {
		if runner != nil {
			b.run = runner
		}
	}
}

// New returns a inspector for the ffprobe executable at binary.
func New(binary string, opts ...Option) *Binary {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	b := &Binary{path: binary, run: defaultOutputRunner}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Inspect executes ffprobe against path and decodes the JSON response.
func (b *Binary) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := b.run(ctx, b.path, "-v", "error", "-hide_banner", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", path, err)
	}
	result, err := Parse(output)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "ffprobe", "parse", path, err)
	}
	return result, nil
}

// Parse decodes ffprobe's JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("decode ffprobe json: %w", err)
	}
	return result, nil
}

func defaultOutputRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return output, nil
}

func (r Result) countType(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// VideoStreamCount returns the number of video streams, excluding cover art.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") && stream.Disposition.AttachedPic == 0 {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int { return r.countType("audio") }

// SubtitleStreamCount returns the number of embedded subtitle streams.
func (r Result) SubtitleStreamCount() int { return r.countType("subtitle") }

// HasSubtitles reports whether the container carries a subtitle stream.
func (r Result) HasSubtitles() bool { return r.SubtitleStreamCount() > 0 }
