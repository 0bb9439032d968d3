package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/services"
)

func TestFFmpegRunPassesArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	f := NewFFmpeg("/usr/bin/ffmpeg", WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}))
	cmd, err := FrameCommand("in.mp4", "5", "out.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Run(context.Background(), cmd); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotName != "/usr/bin/ffmpeg" || len(gotArgs) != len(cmd.Args()) {
		t.Fatalf("runner got %q %q", gotName, gotArgs)
	}
}

func TestFFmpegDefaultsBinary(t *testing.T) {
	if got := NewFFmpeg("  ").Binary(); got != "ffmpeg" {
		t.Fatalf("Binary = %q", got)
	}
}

func TestFFmpegRunFailureRemovesPartialOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mkv")
	f := NewFFmpeg("ffmpeg", WithCommandRunner(func(context.Context, string, ...string) error {
		if err := os.WriteFile(out, []byte("partial"), 0o644); err != nil {
			t.Fatal(err)
		}
		return errors.New("exit status 1: invalid data")
	}))
	cmd, err := NewRemux("in.mp4").Output(out).Build()
	if err != nil {
		t.Fatal(err)
	}
	err = f.Run(context.Background(), cmd)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("partial output left behind: %v", statErr)
	}
}

func TestFFmpegRunRejectsEmptyCommand(t *testing.T) {
	f := NewFFmpeg("ffmpeg", WithCommandRunner(func(context.Context, string, ...string) error { return nil }))
	if err := f.Run(context.Background(), Command{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
