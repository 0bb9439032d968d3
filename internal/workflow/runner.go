package workflow

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/course"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/media/ffprobe"
	"curator/internal/organizer"
	"curator/internal/pipeline"
	"curator/internal/publish"
	"curator/internal/reconcile"
	"curator/internal/services"
	"curator/internal/staging"
	"curator/internal/storage"
	"curator/internal/transcode"
)

// Uploader publishes a finished course directory.
type Uploader interface {
	Upload(ctx context.Context, localDir string) (publish.Summary, error)
}

// Deps are the collaborators of a run. Images, Ledger and Publisher are
// optional.
type Deps struct {
	Catalog    catalog.Client
	Images     catalog.ImageDownloader
	Storage    storage.Storage
	Inspector  ffprobe.Inspector
	Transcoder transcode.Transcoder
	Ledger     Recorder
	Publisher  Uploader
}

// Hooks let a caller follow a run.
type Hooks struct {
	OnStage func(stage string)
	// OnPairs is called with the number of lessons about to be remuxed.
	OnPairs func(total int)
	OnItem  func(item pipeline.Item)
}

// Request names the course and the download to stage.
type Request struct {
	Slug string
	// Source is a directory or zip archive. Empty resumes from the cache.
	Source string
	// Publish uploads the course after a run without failures.
	Publish bool
}

// Report summarizes a run.
type Report struct {
	RunID     string
	Course    course.Course
	CourseDir string
	Archives  staging.ArchiveResult
	Pipeline  pipeline.Result
	Documents []organizer.Placement
	Cleanup   staging.CleanupResult
	CacheKept bool
	Published *publish.Summary
	LogPath   string
}

// Failures is the number of lessons that failed.
func (r Report) Failures() int { return r.Pipeline.Failed() }

// Runner executes runs.
type Runner struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	hooks  Hooks
	now    func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHooks registers progress callbacks.
func WithHooks(hooks Hooks) Option {
	return func(r *Runner) { r.hooks = hooks }
}

// NewRunner constructs a runner.
func NewRunner(cfg *config.Config, deps Deps, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, deps: deps, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = logging.NewComponentLogger(r.logger, "workflow")
	return r
}

func (r *Runner) stage(ctx context.Context, name string) context.Context {
	if r.hooks.OnStage != nil {
		r.hooks.OnStage(name)
	}
	return services.WithStage(ctx, name)
}

// Run executes every stage for req. The report is filled as far as the run
// got, also when an error is returned.
func (r *Runner) Run(ctx context.Context, req Request) (report Report, err error) {
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		return report, services.Wrap(services.ErrValidation, "workflow", "run", "course slug is required", nil)
	}
	libraryDir := r.cfg.Paths.LibraryDir

	run, err := r.startRun(ctx, slug, req.Source, libraryDir)
	if err != nil {
		return report, err
	}
	report.RunID = run.ID
	ctx = services.WithRunID(ctx, run.ID)
	logger, logPath := r.runLogger(r.logger, slug, run.ID)
	report.LogPath = logPath
	started := r.now()
	logging.WithContext(ctx, logger).Info("run started",
		logging.String("slug", slug),
		logging.String("source", req.Source),
		logging.String(logging.FieldEventType, "run_start"),
	)
	defer func() {
		r.finishRun(ctx, logger, run, &report, err, started)
	}()

	// Catalog and course tree.
	stageCtx := r.stage(ctx, StageCatalog)
	builder := course.NewBuilder(
		r.deps.Catalog,
		course.NewClassifier(r.cfg.Classification.DocumentKeywords),
		course.WithStrictDurations(r.cfg.Catalog.StrictDurations),
		course.WithLogger(logger),
	)
	c, err := builder.Load(stageCtx, slug)
	if err != nil {
		return report, err
	}
	report.Course = c
	report.CourseDir = filepath.Join(libraryDir, c.Dir())
	run.Course = c.Name()
	if r.deps.Ledger != nil {
		if err := r.deps.Ledger.SetCourse(ctx, run.ID, c.Name()); err != nil {
			logger.Warn("ledger update failed", logging.Error(err))
		}
	}

	// Staging cache.
	stageCtx = r.stage(ctx, StageStaging)
	wizard, err := staging.NewWizard(report.CourseDir, r.deps.Storage, logger, r.cfg.Staging.KeptExtensions)
	if err != nil {
		return report, err
	}
	defer wizard.Close()
	if err := wizard.Assemble(stageCtx, req.Source); err != nil {
		return report, err
	}
	thumbnail := r.downloadImage(stageCtx, logging.WithContext(stageCtx, logger), c, wizard.Cache())

	stageCtx = r.stage(ctx, StageArchives)
	if report.Archives, err = wizard.ExtractZips(stageCtx); err != nil {
		return report, err
	}
	if _, err := wizard.Cleanup(stageCtx); err != nil {
		return report, err
	}

	// Positional reconciliation. Nothing is written to the library before
	// the counts agree.
	stageCtx = r.stage(ctx, StageReconcile)
	files, err := r.deps.Storage.List(stageCtx, wizard.Cache(), SourceExtensions...)
	if err != nil {
		return report, err
	}
	pairs, err := reconcile.Pairs(files, c.FlattenLessons(course.Video))
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(stageCtx, logger), "staged videos do not match the catalog", "count_mismatch",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the download for missing or extra videos; the cache is kept"),
		)
		return report, services.Wrap(services.ErrCountMismatch, StageReconcile, "pair videos", c.Name(), err)
	}
	if r.hooks.OnPairs != nil {
		r.hooks.OnPairs(len(pairs))
	}

	// Media pipeline.
	stageCtx = r.stage(ctx, StageMedia)
	position := 0
	processor := pipeline.NewProcessor(
		r.deps.Storage,
		r.deps.Inspector,
		r.deps.Transcoder,
		pipeline.Options{
			LibraryDir:     libraryDir,
			Thumbnail:      thumbnail,
			IntroTimestamp: r.cfg.Media.IntroTimestamp,
			OtherTimestamp: r.cfg.Media.OtherTimestamp,
			Language:       r.cfg.Media.MetadataLanguage,
			SectionComment: r.cfg.Media.SectionComment,
		},
		pipeline.WithLogger(logger),
		pipeline.WithObserver(func(item pipeline.Item) {
			position++
			r.recordItem(ctx, logger, run.ID, position, item)
			if r.hooks.OnItem != nil {
				r.hooks.OnItem(item)
			}
		}),
	)
	report.Pipeline, err = processor.Process(stageCtx, pairs)
	if err != nil {
		return report, err
	}

	// Documents.
	stageCtx = r.stage(ctx, StageDocuments)
	placer := organizer.New(r.deps.Storage, libraryDir, logger)
	report.Documents, err = placer.Place(stageCtx, c, wizard.Cache(), organizer.ModeFor(r.cfg.Documents.Organize))
	if err != nil {
		return report, err
	}

	// Final cleanup and cache removal.
	stageCtx = r.stage(ctx, StageFinalize)
	if report.Cleanup, err = wizard.Cleanup(stageCtx); err != nil {
		return report, err
	}
	failures := report.Failures()
	if err := wizard.Finalize(stageCtx, failures); err != nil {
		return report, err
	}
	report.CacheKept = failures > 0

	if req.Publish {
		if err := r.publish(r.stage(ctx, StagePublish), logger, &report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (r *Runner) startRun(ctx context.Context, slug, source, libraryDir string) (*ledger.Run, error) {
	if r.deps.Ledger == nil {
		return &ledger.Run{
			ID:         uuid.NewString(),
			Slug:       slug,
			Source:     source,
			LibraryDir: libraryDir,
			Status:     ledger.StatusRunning,
			StartedAt:  r.now().UTC(),
		}, nil
	}
	return r.deps.Ledger.StartRun(ctx, slug, source, libraryDir)
}

func (r *Runner) finishRun(ctx context.Context, logger *slog.Logger, run *ledger.Run, report *Report, runErr error, started time.Time) {
	logger = logging.WithContext(ctx, logger)
	failures := report.Failures()
	run.Status = runStatus(runErr, failures)
	run.Submitted = report.Pipeline.Submitted()
	run.Skipped = report.Pipeline.Skipped()
	run.Failed = failures
	run.Documents = len(report.Documents)
	run.Archives = len(report.Archives.CodeArchives)
	run.FinishedAt = r.now().UTC()
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}

	if r.deps.Ledger != nil {
		if err := r.deps.Ledger.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("ledger update failed", logging.Error(err))
		}
	}

	attrs := []logging.Attr{
		logging.String("status", string(run.Status)),
		logging.Int("submitted", run.Submitted),
		logging.Int("skipped", run.Skipped),
		logging.Int("failed", run.Failed),
		logging.Int("documents", run.Documents),
		logging.Duration("elapsed", r.now().Sub(started)),
	}
	switch {
	case runErr != nil:
		attrs = append(attrs, logging.Error(runErr))
		logging.ErrorWithContext(logger, "run failed", "run_failed", attrs...)
	case failures > 0:
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "rerun the same slug without a source to retry the failed lessons"),
			logging.String(logging.FieldImpact, "failed lessons are missing from the library"),
		)
		logging.WarnWithContext(logger, "run finished with failures", "run_partial", attrs...)
	default:
		attrs = append(attrs, logging.String(logging.FieldEventType, "run_complete"))
		logger.Info("run finished", logging.Args(attrs...)...)
	}
}

func (r *Runner) recordItem(ctx context.Context, logger *slog.Logger, runID string, position int, item pipeline.Item) {
	if r.deps.Ledger == nil {
		return
	}
	if _, err := r.deps.Ledger.RecordItem(context.WithoutCancel(ctx), ledgerItem(runID, position, item)); err != nil {
		logger.Warn("ledger item not recorded", logging.String("lesson", item.Lesson.CanonicalPath()), logging.Error(err))
	}
}

// downloadImage saves the course image into the cache once and returns its
// path, or "" when there is none.
func (r *Runner) downloadImage(ctx context.Context, logger *slog.Logger, c course.Course, cache string) string {
	if cached := staging.CachedThumbnail(cache); cached != "" {
		return cached
	}
	url := strings.TrimSpace(c.ImageURL())
	if url == "" || r.deps.Images == nil {
		return ""
	}
	dst, err := r.deps.Images.DownloadImage(ctx, url, filepath.Join(cache, staging.ThumbnailStem))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ""
		}
		logging.WarnWithContext(logger, "course image download failed", "image_download_failed",
			logging.String("url", url),
			logging.Error(err),
			logging.String(logging.FieldImpact, "lessons get frame thumbnails or none"),
		)
		return ""
	}
	return dst
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, report *Report) error {
	logger = logging.WithContext(ctx, logger)
	if report.Failures() > 0 {
		logging.WarnWithContext(logger, "publish skipped", "publish_skipped",
			logging.Int("failed", report.Failures()),
			logging.String(logging.FieldErrorHint, "publish after the failed lessons are fixed"),
		)
		return nil
	}
	if r.deps.Publisher == nil {
		return services.Wrap(services.ErrConfiguration, StagePublish, "", "publishing requested but not configured", nil)
	}
	summary, err := r.deps.Publisher.Upload(ctx, report.CourseDir)
	if err != nil {
		return err
	}
	report.Published = &summary
	return nil
}
