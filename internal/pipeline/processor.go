package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"curator/internal/logging"
	"curator/internal/media/ffprobe"
	"curator/internal/reconcile"
	"curator/internal/services"
	"curator/internal/textutil"
	"curator/internal/transcode"
)

const (
	subtitleExtension = ".srt"
	frameSuffix       = "-frame.jpg"
)

// Options controls how commands are built.
type Options struct {
	// LibraryDir is the root that lesson canonical paths are joined to.
	LibraryDir string
	// Thumbnail is the course image. It is attached when the file exists.
	Thumbnail string
	// IntroTimestamp and OtherTimestamp select the frame extracted when no
	// course image exists. Both must be set for extraction to happen.
	IntroTimestamp string
	OtherTimestamp string
	Language       string
	// SectionComment writes the section name as the container comment.
	SectionComment bool
}

func (o Options) framesConfigured() bool {
	return strings.TrimSpace(o.IntroTimestamp) != "" && strings.TrimSpace(o.OtherTimestamp) != ""
}

// Observer is notified after each item reaches a terminal state.
type Observer func(Item)

// Processor runs the per-lesson state machine sequentially.
type Processor struct {
	store      Storage
	inspector  ffprobe.Inspector
	transcoder transcode.Transcoder
	opts       Options
	logger     *slog.Logger
	observer   Observer
}

// Storage is the subset of storage.Storage the processor needs.
type Storage interface {
	MkdirAll(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
}

// Option customizes a Processor.
type Option func(*Processor)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver registers a callback fired once per item.
func WithObserver(observer Observer) Option {
	return func(p *Processor) {
		p.observer = observer
	}
}

// NewProcessor constructs a processor.
func NewProcessor(store Storage, inspector ffprobe.Inspector, transcoder transcode.Transcoder, opts Options, options ...Option) *Processor {
	p := &Processor{
		store:      store,
		inspector:  inspector,
		transcoder: transcoder,
		opts:       opts,
		logger:     logging.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p
}

// Process handles pairs in order. Item failures are recorded in the result;
// any other error stops the run, such as cancellation or a storage failure.
func (p *Processor) Process(ctx context.Context, pairs []reconcile.Pair) (Result, error) {
	result := Result{Items: make([]Item, 0, len(pairs))}
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		item, err := p.processOne(ctx, pair)
		if services.IsFatal(err) {
			return result, err
		}
		result.Items = append(result.Items, item)
		if p.observer != nil {
			p.observer(item)
		}
	}
	p.logger.Info("media pipeline finished",
		logging.Int("submitted", result.Submitted()),
		logging.Int("skipped", result.Skipped()),
		logging.Int("failed", result.Failed()),
		logging.String(logging.FieldEventType, "pipeline_complete"),
	)
	return result, nil
}

// OutputPath returns where pair's lesson is written.
func (p *Processor) OutputPath(pair reconcile.Pair) string {
	return filepath.Join(p.opts.LibraryDir, pair.Lesson.CanonicalPath()) + transcode.OutputExtension
}

func (p *Processor) processOne(ctx context.Context, pair reconcile.Pair) (Item, error) {
	started := time.Now()
	item := Item{Source: pair.Source, Lesson: pair.Lesson, Output: p.OutputPath(pair), State: StateStart}
	ctx = services.WithLesson(ctx, pair.Lesson.CanonicalPath())
	logger := logging.WithContext(ctx, p.logger)

	if _, err := os.Stat(item.Output); err == nil {
		item.State = StateSkipped
		logger.Info("lesson already in library",
			logging.String("output", item.Output),
			logging.String(logging.FieldEventType, "remux_skipped"),
		)
		return item, nil
	}

	thumbnail, frame, err := p.thumbnail(ctx, logger, pair)
	if err != nil {
		return item, err
	}
	if frame != "" {
		item.State = StateFrameExtracted
		defer p.discardFrame(ctx, logger, frame)
	}
	item.Thumbnail = thumbnail

	subtitle, sidecar, err := p.inspectSource(ctx, pair.Source)
	if err != nil {
		return p.fail(logger, item, started, "inspect", err)
	}
	item.Subtitle = subtitle
	item.State = StateSubtitleClassified

	builder := transcode.NewRemux(pair.Source).
		Title(pair.Lesson.Name()).
		Language(p.opts.Language).
		Thumbnail(thumbnail).
		Output(item.Output)
	switch subtitle {
	case transcode.SubtitleEmbedded:
		builder.EmbeddedSubtitle()
	case transcode.SubtitleSidecar:
		builder.SidecarSubtitle(sidecar)
	}
	if p.opts.SectionComment {
		builder.Comment(pair.Lesson.SectionName())
	}
	cmd, err := builder.Build()
	if err != nil {
		return p.fail(logger, item, started, "build", err)
	}
	item.State = StateCommandBuilt

	if err := p.store.MkdirAll(ctx, filepath.Dir(item.Output)); err != nil {
		return item, err
	}
	if err := p.transcoder.Run(ctx, cmd); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return item, ctxErr
		}
		return p.fail(logger, item, started, "remux", err)
	}
	item.State = StateSubmitted
	item.Elapsed = time.Since(started)
	logger.Info("lesson remuxed",
		logging.String("output", item.Output),
		logging.String("subtitle", subtitle.String()),
		logging.Bool("thumbnail", thumbnail != ""),
		logging.Duration("elapsed", item.Elapsed),
		logging.String(logging.FieldEventType, "remux_complete"),
	)
	return item, nil
}

// thumbnail returns the image to attach and, when one was extracted for this
// item, the frame path to discard afterwards.
func (p *Processor) thumbnail(ctx context.Context, logger *slog.Logger, pair reconcile.Pair) (string, string, error) {
	if image := strings.TrimSpace(p.opts.Thumbnail); image != "" {
		if info, err := os.Stat(image); err == nil && !info.IsDir() {
			return image, "", nil
		}
	}
	if !p.opts.framesConfigured() {
		return "", "", nil
	}

	timestamp := p.opts.OtherTimestamp
	if pair.Lesson.IsFirstInSection() {
		timestamp = p.opts.IntroTimestamp
	}
	frame := strings.TrimSuffix(pair.Source, filepath.Ext(pair.Source)) + frameSuffix
	cmd, err := transcode.FrameCommand(pair.Source, timestamp, frame)
	if err != nil {
		return "", "", err
	}
	if err := p.transcoder.Run(ctx, cmd); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		logging.WarnWithContext(logger, "frame extraction failed", "frame_extraction_failed",
			logging.String("timestamp", timestamp),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the configured timestamps against the lesson duration"),
			logging.String(logging.FieldImpact, "lesson is written without a cover image"),
		)
		return "", "", nil
	}
	if _, err := os.Stat(frame); err != nil {
		logging.WarnWithContext(logger, "frame extraction produced no image", "frame_extraction_empty",
			logging.String("timestamp", timestamp),
			logging.String(logging.FieldImpact, "lesson is written without a cover image"),
		)
		return "", "", nil
	}
	return frame, frame, nil
}

func (p *Processor) discardFrame(ctx context.Context, logger *slog.Logger, frame string) {
	if err := p.store.Remove(ctx, frame); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("frame not removed", logging.String("frame", frame), logging.Error(err))
	}
}

// inspectSource rejects a source without both a video and an audio stream,
// then picks the subtitle source. An embedded subtitle stream wins over a
// sidecar file.
func (p *Processor) inspectSource(ctx context.Context, source string) (transcode.SubtitleSource, string, error) {
	streams, err := p.inspector.Inspect(ctx, source)
	if err != nil {
		return transcode.SubtitleNone, "", err
	}
	if video, audio := streams.VideoStreamCount(), streams.AudioStreamCount(); video == 0 || audio == 0 {
		return transcode.SubtitleNone, "", fmt.Errorf("source has %d video and %d audio streams, need at least one of each", video, audio)
	}
	if streams.HasSubtitles() {
		return transcode.SubtitleEmbedded, "", nil
	}
	sidecar, err := findSidecar(source)
	if err != nil {
		return transcode.SubtitleNone, "", err
	}
	if sidecar != "" {
		return transcode.SubtitleSidecar, sidecar, nil
	}
	return transcode.SubtitleNone, "", nil
}

// findSidecar returns the first "<stem>*.srt" next to source in natural
// order. The stem must end at a word boundary so "1.mp4" does not pick up
// "10.srt".
func findSidecar(source string) (string, error) {
	dir := filepath.Dir(source)
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, stem) {
			continue
		}
		if rest := name[len(stem):]; rest != "" && isWordRune(rest[0]) {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), subtitleExtension) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", nil
	}
	textutil.SortNatural(matches)
	return filepath.Join(dir, matches[0]), nil
}

// fail marks item failed. The returned error is item.Err, which Process
// treats as non-fatal.
func (p *Processor) fail(logger *slog.Logger, item Item, started time.Time, op string, err error) (Item, error) {
	item.State = StateFailed
	item.Err = services.Wrap(services.ErrTranscodeFailed, "pipeline", op, item.Lesson.CanonicalPath(), err)
	item.Elapsed = time.Since(started)
	logging.ErrorWithContext(logger, "lesson failed", "remux_failed",
		logging.String("source", item.Source),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, fmt.Sprintf("source kept in the staging cache; inspect it with ffprobe %q", item.Source)),
	)
	return item, item.Err
}

func isWordRune(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
