package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupRemovesUnkeptFilesAndEmptyParents(t *testing.T) {
	w := newTestWizard(t)
	cache := w.Cache()
	writeFile(t, filepath.Join(cache, "junk", "deep", "partial.tmp"))
	writeFile(t, filepath.Join(cache, "01- Intro", "1.mp4"))
	writeFile(t, filepath.Join(cache, "01- Intro", "download.tmp"))
	writeFile(t, filepath.Join(cache, "readme.txt"))
	w.assembled = true

	result, err := w.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if len(result.RemovedFiles) != 3 {
		t.Fatalf("expected 3 removed files, got %v", result.RemovedFiles)
	}
	for _, gone := range []string{"junk", filepath.Join("01- Intro", "download.tmp"), "readme.txt"} {
		if _, err := os.Stat(filepath.Join(cache, gone)); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed, stat err=%v", gone, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cache, "01- Intro", "1.mp4")); err != nil {
		t.Fatalf("kept file removed: %v", err)
	}
	if len(result.RemovedDirs) != 2 {
		t.Fatalf("expected junk/deep and junk to be pruned, got %v", result.RemovedDirs)
	}
	if result.RemovedDirs[0] != filepath.Join(cache, "junk", "deep") {
		t.Fatalf("expected deepest directory first, got %v", result.RemovedDirs)
	}
}

func TestCleanupExtraKeptSuffixes(t *testing.T) {
	w := newTestWizard(t, ".md")
	cache := w.Cache()
	writeFile(t, filepath.Join(cache, "notes.md"))
	writeFile(t, filepath.Join(cache, "source.txt"))
	writeFile(t, filepath.Join(cache, "partial.tmp"))

	result, err := w.Cleanup(context.Background(), "txt")
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if len(result.RemovedFiles) != 1 || filepath.Base(result.RemovedFiles[0]) != "partial.tmp" {
		t.Fatalf("unexpected removals: %v", result.RemovedFiles)
	}
}

func TestPendingCaches(t *testing.T) {
	library := t.TempDir()
	writeFile(t, filepath.Join(library, "Docker", CacheDirName, "1.mp4"))
	writeFile(t, filepath.Join(library, "React", "Part 2", CacheDirName, "a.mp4"))
	writeFile(t, filepath.Join(library, "React", "Part 2", CacheDirName, "b.mp4"))
	writeFile(t, filepath.Join(library, "Finished", "01- Intro", "01- Welcome.mkv"))

	caches, err := PendingCaches(library)
	if err != nil {
		t.Fatalf("PendingCaches: %v", err)
	}
	if len(caches) != 2 {
		t.Fatalf("expected 2 caches, got %+v", caches)
	}
	if caches[0].Course != "Docker" || caches[0].Files != 1 {
		t.Fatalf("unexpected first cache: %+v", caches[0])
	}
	if caches[1].Course != filepath.Join("React", "Part 2") || caches[1].Files != 2 {
		t.Fatalf("unexpected bundle member cache: %+v", caches[1])
	}
	if caches[1].Size == 0 || time.Since(caches[1].ModTime) > time.Hour {
		t.Fatalf("unexpected cache metadata: %+v", caches[1])
	}
}

func TestPendingCachesMissingLibrary(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/library/12345"} {
		caches, err := PendingCaches(dir)
		if err != nil || len(caches) != 0 {
			t.Errorf("expected empty result for %q, got %v %v", dir, caches, err)
		}
	}
}
