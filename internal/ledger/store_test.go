package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"curator/internal/config"
	"curator/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.OpenPath(filepath.Join(t.TempDir(), "state", "curator.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenUsesConfiguredStateDir(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	store, err := ledger.Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if store.Path() != cfg.LedgerPath() {
		t.Fatalf("Path = %q, want %q", store.Path(), cfg.LedgerPath())
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.StartRun(ctx, "node-js", "/downloads/node", "/library")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.ID == "" || run.Status != ledger.StatusRunning || run.Finished() {
		t.Fatalf("unexpected run %+v", run)
	}
	if err := store.SetCourse(ctx, run.ID, "Node.js-"); err != nil {
		t.Fatalf("SetCourse: %v", err)
	}

	for i, state := range []string{"submitted", "failed"} {
		item := ledger.Item{
			RunID:    run.ID,
			Position: i + 1,
			Lesson:   fmt.Sprintf("Node.js-/01- Start/%02d- L", i+1),
			Source:   fmt.Sprintf("/cache/%d.mp4", i+1),
			State:    state,
			Subtitle: "none",
			Elapsed:  1500 * time.Millisecond,
		}
		if state == "failed" {
			item.ErrorMessage = "transcode failed"
		}
		if _, err := store.RecordItem(ctx, item); err != nil {
			t.Fatalf("RecordItem: %v", err)
		}
	}

	run.Course = "Node.js-"
	run.Status = ledger.StatusPartial
	run.Submitted = 1
	run.Failed = 1
	if err := store.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	found, err := store.FindRun(ctx, run.ID[:8])
	if err != nil {
		t.Fatalf("FindRun: %v", err)
	}
	if found.Status != ledger.StatusPartial || found.Course != "Node.js-" || found.Failed != 1 || found.Source != "/downloads/node" {
		t.Fatalf("unexpected stored run %+v", found)
	}
	if found.FinishedAt.IsZero() || found.Elapsed() < 0 {
		t.Fatalf("finish time not stored: %+v", found)
	}

	items, err := store.Items(ctx, run.ID)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 || items[0].Position != 1 || items[1].ErrorMessage != "transcode failed" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Elapsed != 1500*time.Millisecond || items[0].Output != "" {
		t.Fatalf("item fields not round-tripped: %+v", items[0])
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	var ids []string
	for _, slug := range []string{"a", "b", "c"} {
		run, err := store.StartRun(ctx, slug, "", "/library")
		if err != nil {
			t.Fatalf("StartRun: %v", err)
		}
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("unexpected order %+v", runs)
	}
	all, err := store.RecentRuns(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("all runs = %d, err = %v", len(all), err)
	}
}

func TestFindRunErrors(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.FindRun(ctx, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for i := 0; i < 20; i++ {
		if _, err := store.StartRun(ctx, "x", "", "/library"); err != nil {
			t.Fatal(err)
		}
	}
	// Twenty ids over sixteen hex digits must share a first digit.
	runs, err := store.RecentRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[byte]int{}
	for _, run := range runs {
		counts[run.ID[0]]++
	}
	for prefix, n := range counts {
		if n > 1 {
			if _, err := store.FindRun(ctx, string(prefix)); !errors.Is(err, ledger.ErrAmbiguous) {
				t.Fatalf("expected ErrAmbiguous for %q, got %v", prefix, err)
			}
			return
		}
	}
	t.Fatal("no shared prefix among run ids")
}

func TestStartRunRequiresSlug(t *testing.T) {
	store := openStore(t)
	if _, err := store.StartRun(context.Background(), " ", "", "/library"); err == nil {
		t.Fatal("expected error for empty slug")
	}
}

func TestPruneRemovesOldRunsAndItems(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	run, err := store.StartRun(ctx, "old", "", "/library")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordItem(ctx, ledger.Item{RunID: run.ID, Position: 1, Lesson: "l", Source: "s", State: "submitted"}); err != nil {
		t.Fatal(err)
	}
	run.Status = ledger.StatusCompleted
	if err := store.FinishRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	n, err := store.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
	items, err := store.Items(ctx, run.ID)
	if err != nil || len(items) != 0 {
		t.Fatalf("items after prune = %d, %v", len(items), err)
	}
}

func TestSchemaMismatchRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curator.db")
	store, err := ledger.OpenPath(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	if _, err := ledger.OpenPath(path); !errors.Is(err, ledger.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
