package organizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/catalog"
	"curator/internal/course"
	"curator/internal/logging"
	"curator/internal/reconcile"
	"curator/internal/services"
	"curator/internal/storage"
)

func testCourse(t *testing.T) course.Course {
	t.Helper()
	page := catalog.Page{
		Course: &catalog.RawCourse{ID: 7, Name: "The Complete Git Course"},
		Curriculum: []catalog.RawSection{
			{Name: "Basics", Lessons: []catalog.RawLesson{
				{Name: "Init", Type: catalog.LessonTypeVideo, Duration: "1:00"},
				{Name: "Git Cheat Sheet", Type: 2},
			}},
			{Name: "Branching", Lessons: []catalog.RawLesson{
				{Name: "Branches", Type: catalog.LessonTypeVideo, Duration: "2:00"},
				{Name: "Exercise: Merge", Type: 2},
				{Name: "Quiz", Type: 3},
			}},
		},
	}
	leaf, err := course.NewBuilder(nil, course.NewClassifier(nil)).Leaf(page)
	if err != nil {
		t.Fatalf("Leaf: %v", err)
	}
	return leaf
}

func stagePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.7\n"+name), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newOrganizer(t *testing.T) (*Organizer, string) {
	t.Helper()
	library := t.TempDir()
	return New(storage.NewLocal(logging.NewNop()), library, logging.NewNop()), library
}

func TestPlaceOrganized(t *testing.T) {
	cache := t.TempDir()
	stagePDF(t, cache, "10-merge.pdf")
	stagePDF(t, cache, "2-cheatsheet.pdf")
	o, library := newOrganizer(t)

	placements, err := o.Place(context.Background(), testCourse(t), cache, ModeOrganized)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := []struct{ source, dst string }{
		{"2-cheatsheet.pdf", filepath.Join(library, "Git", "01- Basics", "02- Git Cheat Sheet.pdf")},
		{"10-merge.pdf", filepath.Join(library, "Git", "02- Branching", "02- Exercise- Merge.pdf")},
	}
	if len(placements) != len(want) {
		t.Fatalf("placements = %+v", placements)
	}
	for i, w := range want {
		if filepath.Base(placements[i].Source) != w.source || placements[i].Destination != w.dst {
			t.Errorf("placement %d = %+v, want %s -> %s", i, placements[i], w.source, w.dst)
		}
		data, err := os.ReadFile(w.dst)
		if err != nil {
			t.Fatalf("read %s: %v", w.dst, err)
		}
		if string(data) != "%PDF-1.7\n"+w.source {
			t.Errorf("%s holds %q", w.dst, data)
		}
	}
}

func TestPlaceOrganizedCountMismatch(t *testing.T) {
	cache := t.TempDir()
	src := stagePDF(t, cache, "only.pdf")
	o, _ := newOrganizer(t)

	_, err := o.Place(context.Background(), testCourse(t), cache, ModeOrganized)
	if !errors.Is(err, services.ErrCountMismatch) {
		t.Fatalf("expected count mismatch, got %v", err)
	}
	var mismatch *reconcile.CountMismatchError
	if !errors.As(err, &mismatch) || mismatch.Local != 1 || mismatch.Remote != 2 {
		t.Fatalf("mismatch = %+v", mismatch)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source moved despite mismatch: %v", err)
	}
}

func TestPlaceFlat(t *testing.T) {
	cache := t.TempDir()
	stagePDF(t, cache, "b/slides.pdf")
	stagePDF(t, cache, "a/notes.pdf")
	o, library := newOrganizer(t)

	placements, err := o.Place(context.Background(), testCourse(t), cache, ModeFlat)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	docs := filepath.Join(library, "Git", "Files", "Documents")
	for i, want := range []string{"01- notes.pdf", "02- slides.pdf"} {
		if placements[i].Destination != filepath.Join(docs, want) {
			t.Errorf("placement %d = %s, want %s", i, placements[i].Destination, want)
		}
		if _, err := os.Stat(filepath.Join(docs, want)); err != nil {
			t.Errorf("missing %s: %v", want, err)
		}
	}
}

func TestPlaceRefusesOverwrite(t *testing.T) {
	cache := t.TempDir()
	stagePDF(t, cache, "notes.pdf")
	o, library := newOrganizer(t)
	stagePDF(t, filepath.Join(library, "Git", "Files", "Documents"), "01- notes.pdf")

	if _, err := o.Place(context.Background(), testCourse(t), cache, ModeFlat); !errors.Is(err, services.ErrStorageConflict) {
		t.Fatalf("expected storage conflict, got %v", err)
	}
}

func TestPlaceWithoutDocuments(t *testing.T) {
	o, _ := newOrganizer(t)
	placements, err := o.Place(context.Background(), testCourse(t), t.TempDir(), ModeOrganized)
	if err != nil || placements != nil {
		t.Fatalf("placements=%v err=%v", placements, err)
	}
}

func TestValidateDocument(t *testing.T) {
	dir := t.TempDir()
	good := stagePDF(t, dir, "good.pdf")
	bad := filepath.Join(dir, "bad.pdf")
	if err := os.WriteFile(bad, []byte("<html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	short := filepath.Join(dir, "short.pdf")
	if err := os.WriteFile(short, []byte("%P"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateDocument(good); err != nil {
		t.Fatalf("good: %v", err)
	}
	for _, path := range []string{bad, short, filepath.Join(dir, "missing.pdf")} {
		if err := ValidateDocument(path); !errors.Is(err, services.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", filepath.Base(path), err)
		}
	}
}

func TestModeFor(t *testing.T) {
	if ModeFor(true) != ModeOrganized || ModeFor(false) != ModeFlat {
		t.Fatal("unexpected mode mapping")
	}
	if FlatName(3, "a.pdf") != "03- a.pdf" {
		t.Fatalf("FlatName = %q", FlatName(3, "a.pdf"))
	}
	if got := FlatName(1, "notes: v2?.pdf"); got != "01- notes- v2.pdf" {
		t.Fatalf("FlatName = %q", got)
	}
}
