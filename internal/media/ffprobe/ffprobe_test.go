package ffprobe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"curator/internal/services"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2, "tags": {"language": "ENG"}},
    {"index": 2, "codec_name": "mov_text", "codec_type": "subtitle", "tags": {"language": "eng"}},
    {"index": 3, "codec_name": "mjpeg", "codec_type": "video", "disposition": {"attached_pic": 1}}
  ]
}`

func TestInspectParsesStreamTable(t *testing.T) {
	var gotArgs []string
	inspector := New("  ", WithOutputRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(sampleOutput), nil
	}))

	result, err := inspector.Inspect(context.Background(), "/cache/1.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if gotArgs[0] != "ffprobe" || gotArgs[len(gotArgs)-1] != "/cache/1.mp4" || gotArgs[len(gotArgs)-2] != "--" {
		t.Fatalf("unexpected invocation %v", gotArgs)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("cover art must not count as video, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 1 || !result.HasSubtitles() || result.SubtitleStreamCount() != 1 {
		t.Fatalf("unexpected stream counts: %+v", result.Streams)
	}
}

func TestInspectWrapsRunnerFailure(t *testing.T) {
	inspector := New("ffprobe", WithOutputRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: No such file")
	}))
	_, err := inspector.Inspect(context.Background(), "/cache/missing.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "No such file") {
		t.Fatalf("expected runner output in error, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := New("ffprobe").Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestParseWithoutSubtitles(t *testing.T) {
	result, err := Parse([]byte(`{"streams":[{"codec_type":"video"},{"codec_type":"audio"}],"format":{}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.HasSubtitles() {
		t.Fatal("expected no subtitles")
	}
	if result.VideoStreamCount() != 1 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected stream counts: %+v", result.Streams)
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStreamCountsOnEmptyTable(t *testing.T) {
	var result Result
	if result.VideoStreamCount() != 0 || result.AudioStreamCount() != 0 || result.HasSubtitles() {
		t.Fatalf("empty table reported streams: %+v", result)
	}
}
