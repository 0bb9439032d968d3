package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/media/ffprobe"
	"curator/internal/pipeline"
	"curator/internal/publish"
	"curator/internal/services"
	"curator/internal/staging"
	"curator/internal/storage"
	"curator/internal/transcode"
)

type fakeCatalog struct {
	pages map[string]catalog.Page
}

func (f fakeCatalog) Fetch(_ context.Context, slug string) (catalog.Page, error) {
	page, ok := f.pages[slug]
	if !ok {
		return catalog.Page{}, fmt.Errorf("%w: %s", services.ErrCatalogUnavailable, slug)
	}
	return page, nil
}

type fakeImages struct {
	calls int
}

func (f *fakeImages) DownloadImage(_ context.Context, imageURL, stem string) (string, error) {
	f.calls++
	dst := stem + ".jpg"
	if strings.HasSuffix(imageURL, ".png") {
		dst = stem + ".png"
	}
	return dst, os.WriteFile(dst, []byte("image"), 0o644)
}

type stubInspector struct{}

func (stubInspector) Inspect(context.Context, string) (ffprobe.Result, error) {
	return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}}}, nil
}

type fakeTranscoder struct {
	failFor  map[string]bool
	remuxes  int
	commands []transcode.Command
}

func (f *fakeTranscoder) Run(_ context.Context, cmd transcode.Command) error {
	if cmd.Kind() == transcode.KindRemux {
		f.remuxes++
		f.commands = append(f.commands, cmd)
		if f.failFor[filepath.Base(cmd.Source())] {
			return errors.New("exit status 1")
		}
	}
	return os.WriteFile(cmd.Output(), []byte(filepath.Base(cmd.Source())), 0o644)
}

type fakeUploader struct {
	dirs []string
}

func (f *fakeUploader) Upload(_ context.Context, dir string) (publish.Summary, error) {
	f.dirs = append(f.dirs, dir)
	return publish.Summary{RemoteRoot: "/remote/" + filepath.Base(dir), Files: 3}, nil
}

func gitPage() catalog.Page {
	return catalog.Page{
		Course: &catalog.RawCourse{ID: 9, Name: "The Complete Git Course", ImageURL: "https://cdn.example/git.jpg"},
		Curriculum: []catalog.RawSection{
			{Name: "Basics", Lessons: []catalog.RawLesson{
				{Name: "Init", Type: catalog.LessonTypeVideo, Duration: "1:00"},
				{Name: "Commit", Type: catalog.LessonTypeVideo, Duration: "2:00"},
				{Name: "Git Cheat Sheet", Type: 2},
			}},
			{Name: "Branching", Lessons: []catalog.RawLesson{
				{Name: "Branches", Type: catalog.LessonTypeVideo, Duration: "3:00"},
			}},
		},
	}
}

type env struct {
	cfg     *config.Config
	library string
	pages   map[string]catalog.Page
	ledger  *ledger.Store
	images  *fakeImages
	tx      *fakeTranscoder
	upload  *fakeUploader
}

func newEnv(t *testing.T) *env {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	store, err := ledger.Open(&cfg)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &env{
		cfg:     &cfg,
		library: cfg.Paths.LibraryDir,
		ledger:  store,
		pages:   map[string]catalog.Page{"git": gitPage()},
		images:  &fakeImages{},
		tx:      &fakeTranscoder{},
		upload:  &fakeUploader{},
	}
}

func (e *env) runner(hooks Hooks) *Runner {
	return NewRunner(e.cfg, Deps{
		Catalog:    fakeCatalog{pages: e.pages},
		Images:     e.images,
		Storage:    storage.NewLocal(logging.NewNop()),
		Inspector:  stubInspector{},
		Transcoder: e.tx,
		Ledger:     e.ledger,
		Publisher:  e.upload,
	}, WithHooks(hooks))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

// stageDownload creates a download directory with videos named out of
// lexical order, a code archive holding the cheat sheet, and junk.
func stageDownload(t *testing.T, videos ...string) string {
	t.Helper()
	source := filepath.Join(t.TempDir(), "download")
	for _, name := range videos {
		writeFile(t, filepath.Join(source, name), name)
	}
	writeFile(t, filepath.Join(source, "readme.url"), "junk")
	writeZip(t, filepath.Join(source, "resources.zip"), map[string]string{
		"cheat.pdf":       "%PDF-1.4 cheat",
		"src/main.go":     "package main",
		"__MACOSX/._main": "mac",
	})
	return source
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRunEndToEnd(t *testing.T) {
	e := newEnv(t)
	var stages []string
	var total int
	var items []pipeline.Item
	r := e.runner(Hooks{
		OnStage: func(stage string) { stages = append(stages, stage) },
		OnPairs: func(n int) { total = n },
		OnItem:  func(item pipeline.Item) { items = append(items, item) },
	})

	source := stageDownload(t, "2.mp4", "10.mp4", "1.mp4")
	report, err := r.Run(context.Background(), Request{Slug: "git", Source: source, Publish: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	courseDir := filepath.Join(e.library, "Git")
	if report.CourseDir != courseDir {
		t.Fatalf("CourseDir = %q", report.CourseDir)
	}
	outputs := map[string]string{
		filepath.Join(courseDir, "01- Basics", "01- Init.mkv"):       "1.mp4",
		filepath.Join(courseDir, "01- Basics", "02- Commit.mkv"):     "2.mp4",
		filepath.Join(courseDir, "02- Branching", "01- Branches.mkv"): "10.mp4",
	}
	for path, from := range outputs {
		if got := readOutput(t, path); got != from {
			t.Errorf("%s written from %s, want %s", path, got, from)
		}
	}
	if got := readOutput(t, filepath.Join(courseDir, "01- Basics", "03- Git Cheat Sheet.pdf")); got != "%PDF-1.4 cheat" {
		t.Errorf("cheat sheet = %q", got)
	}
	if _, err := os.Stat(filepath.Join(courseDir, "Files", "Archives", "code.zip")); err != nil {
		t.Errorf("code archive missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(courseDir, staging.CacheDirName)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cache not removed: %v", err)
	}
	if _, err := os.Stat(source); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("source directory should have been moved into the cache: %v", err)
	}

	if e.images.calls != 1 || total != 3 || len(items) != 3 {
		t.Fatalf("images=%d total=%d items=%d", e.images.calls, total, len(items))
	}
	for _, item := range items {
		if filepath.Base(item.Thumbnail) != staging.ThumbnailStem+".jpg" {
			t.Errorf("item %s thumbnail = %q", item.Lesson.Name(), item.Thumbnail)
		}
	}
	wantStages := []string{StageCatalog, StageStaging, StageArchives, StageReconcile, StageMedia, StageDocuments, StageFinalize, StagePublish}
	if strings.Join(stages, ",") != strings.Join(wantStages, ",") {
		t.Fatalf("stages = %v", stages)
	}
	if len(e.upload.dirs) != 1 || e.upload.dirs[0] != courseDir || report.Published == nil {
		t.Fatalf("publish calls = %v, report = %+v", e.upload.dirs, report.Published)
	}
	if report.LogPath == "" {
		t.Fatal("run log path not reported")
	}
	if data := readOutput(t, report.LogPath); !strings.Contains(data, report.RunID) {
		t.Fatalf("run log does not carry the run id")
	}

	run, err := e.ledger.FindRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("FindRun: %v", err)
	}
	if run.Status != ledger.StatusCompleted || run.Submitted != 3 || run.Documents != 1 || run.Archives != 1 || run.Course != "The Complete Git Course" {
		t.Fatalf("unexpected ledger run %+v", run)
	}
	recorded, err := e.ledger.Items(context.Background(), report.RunID)
	if err != nil || len(recorded) != 3 {
		t.Fatalf("ledger items = %d, %v", len(recorded), err)
	}
	if recorded[2].Lesson != filepath.Join("Git", "02- Branching", "01- Branches") || recorded[2].State != "submitted" {
		t.Fatalf("unexpected ledger item %+v", recorded[2])
	}
}

func TestRunCountMismatchLeavesLibraryUntouched(t *testing.T) {
	e := newEnv(t)
	source := stageDownload(t, "1.mp4", "2.mp4")

	report, err := e.runner(Hooks{}).Run(context.Background(), Request{Slug: "git", Source: source})
	if !errors.Is(err, services.ErrCountMismatch) {
		t.Fatalf("expected count mismatch, got %v", err)
	}
	if e.tx.remuxes != 0 {
		t.Fatalf("remuxed %d lessons despite mismatch", e.tx.remuxes)
	}
	if _, err := os.Stat(filepath.Join(report.CourseDir, "01- Basics")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lesson directories created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(report.CourseDir, staging.CacheDirName)); err != nil {
		t.Fatalf("cache must be kept: %v", err)
	}
	run, err := e.ledger.FindRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != ledger.StatusFailed || !strings.Contains(run.ErrorMessage, "count mismatch") {
		t.Fatalf("unexpected ledger run %+v", run)
	}
}

func TestRunFailureKeepsCacheAndResumes(t *testing.T) {
	e := newEnv(t)
	e.tx.failFor = map[string]bool{"2.mp4": true}
	source := stageDownload(t, "1.mp4", "2.mp4", "10.mp4")

	report, err := e.runner(Hooks{}).Run(context.Background(), Request{Slug: "git", Source: source, Publish: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failures() != 1 || !report.CacheKept {
		t.Fatalf("failures=%d cacheKept=%v", report.Failures(), report.CacheKept)
	}
	if len(e.upload.dirs) != 0 || report.Published != nil {
		t.Fatal("publish must be skipped after failures")
	}
	cache := filepath.Join(report.CourseDir, staging.CacheDirName)
	if _, err := os.Stat(filepath.Join(cache, "2.mp4")); err != nil {
		t.Fatalf("failed source not kept: %v", err)
	}
	first, err := e.ledger.FindRun(context.Background(), report.RunID)
	if err != nil || first.Status != ledger.StatusPartial {
		t.Fatalf("first run = %+v, %v", first, err)
	}

	e.tx.failFor = nil
	resumed, err := e.runner(Hooks{}).Run(context.Background(), Request{Slug: "git"})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Pipeline.Submitted() != 1 || resumed.Pipeline.Skipped() != 2 || resumed.CacheKept {
		t.Fatalf("resume submitted=%d skipped=%d cacheKept=%v",
			resumed.Pipeline.Submitted(), resumed.Pipeline.Skipped(), resumed.CacheKept)
	}
	if got := readOutput(t, filepath.Join(report.CourseDir, "01- Basics", "02- Commit.mkv")); got != "2.mp4" {
		t.Fatalf("resumed lesson written from %s", got)
	}
	if _, err := os.Stat(cache); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("cache not removed after clean resume: %v", err)
	}
}

func TestRunKeepsPNGCourseImageType(t *testing.T) {
	e := newEnv(t)
	page := gitPage()
	page.Course.ImageURL = "https://cdn.example/git.png"
	e.pages["git"] = page
	source := stageDownload(t, "1.mp4", "2.mp4", "10.mp4")

	var items []pipeline.Item
	r := e.runner(Hooks{OnItem: func(item pipeline.Item) { items = append(items, item) }})
	if _, err := r.Run(context.Background(), Request{Slug: "git", Source: source}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(items) != 3 || filepath.Base(items[0].Thumbnail) != staging.ThumbnailStem+".png" {
		t.Fatalf("items=%d thumbnail=%q", len(items), items[0].Thumbnail)
	}
	joined := strings.Join(e.tx.commands[0].Args(), " ")
	if !strings.Contains(joined, "mimetype=image/png") || !strings.Contains(joined, "filename=cover.png") {
		t.Fatalf("attachment args %q", joined)
	}
}

func TestRunRejectsEmptySlug(t *testing.T) {
	e := newEnv(t)
	if _, err := e.runner(Hooks{}).Run(context.Background(), Request{Slug: " "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunUnknownCourse(t *testing.T) {
	e := newEnv(t)
	report, err := e.runner(Hooks{}).Run(context.Background(), Request{Slug: "missing", Source: t.TempDir()})
	if !errors.Is(err, services.ErrCatalogUnavailable) {
		t.Fatalf("expected catalog error, got %v", err)
	}
	run, findErr := e.ledger.FindRun(context.Background(), report.RunID)
	if findErr != nil || run.Status != ledger.StatusFailed {
		t.Fatalf("run = %+v, %v", run, findErr)
	}
}

func TestRunLogPath(t *testing.T) {
	got := RunLogPath("/logs", "Node JS!", "0123456789abcdef", mustTime(t, "2026-03-04T05:06:07Z"))
	want := filepath.Join("/logs", RunLogDir, "20260304T050607-node_js-01234567.log")
	if got != want {
		t.Fatalf("RunLogPath = %q, want %q", got, want)
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}
