package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"curator/internal/logging"
	"curator/internal/services"
)

// Transcoder executes built commands.
type Transcoder interface {
	Run(ctx context.Context, cmd Command) error
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// FFmpeg runs commands through an ffmpeg binary.
type FFmpeg struct {
	binary string
	run    commandRunner
	logger *slog.Logger
}

var _ Transcoder = (*FFmpeg)(nil)

// Option customizes an FFmpeg runner.
type Option func(*FFmpeg)

// WithCommandRunner overrides how ffmpeg is executed (primarily for tests).
func WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) Option {
	return func(f *FFmpeg) {
		if runner != nil {
			f.run = runner
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FFmpeg) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFFmpeg constructs a runner for binary, defaulting to "ffmpeg".
func NewFFmpeg(binary string, opts ...Option) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	f := &FFmpeg{binary: binary, run: defaultCommandRunner, logger: logging.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.logger = logging.NewComponentLogger(f.logger, "ffmpeg")
	return f
}

// Binary returns the executable used.
func (f *FFmpeg) Binary() string { return f.binary }

// Run executes cmd. A partially written output is removed on failure.
func (f *FFmpeg) Run(ctx context.Context, cmd Command) error {
	if cmd.Output() == "" {
		return services.Wrap(services.ErrValidation, "transcode", "run", "command has no output", nil)
	}
	started := time.Now()
	f.logger.Debug("ffmpeg started",
		logging.String("output", cmd.Output()),
		logging.String("args", cmd.String()),
	)
	if err := f.run(ctx, f.binary, cmd.Args()...); err != nil {
		if removeErr := os.Remove(cmd.Output()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logging.WarnWithContext(f.logger, "partial output not removed", "transcode_cleanup_failed",
				logging.String("output", cmd.Output()),
				logging.Error(removeErr),
				logging.String(logging.FieldErrorHint, "delete the partial file manually"),
			)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "transcode", "ffmpeg", cmd.Output(), err)
	}
	f.logger.Debug("ffmpeg finished",
		logging.String("output", cmd.Output()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
