package reconcile

import (
	"errors"
	"testing"

	"curator/internal/catalog"
	"curator/internal/course"
	"curator/internal/services"
)

func threeLessons(t *testing.T) []course.Lesson {
	t.Helper()
	page := catalog.Page{
		Course: &catalog.RawCourse{Name: "Go"},
		Curriculum: []catalog.RawSection{
			{Name: "A", Lessons: []catalog.RawLesson{{Name: "L1", Type: 1}, {Name: "L2", Type: 1}}},
			{Name: "B", Lessons: []catalog.RawLesson{{Name: "L3", Type: 1}}},
		},
	}
	leaf, err := course.NewBuilder(nil, course.NewClassifier(nil)).Leaf(page)
	if err != nil {
		t.Fatalf("build course: %v", err)
	}
	return leaf.FlattenLessons(course.Video)
}

func TestPairsIsPositional(t *testing.T) {
	lessons := threeLessons(t)
	files := []string{"/cache/1.mp4", "/cache/2.mp4", "/cache/10.mp4"}

	pairs, err := Pairs(files, lessons)
	if err != nil {
		t.Fatalf("Pairs returned error: %v", err)
	}
	for i, pair := range pairs {
		if pair.Source != files[i] {
			t.Fatalf("pair %d source = %q, want %q", i, pair.Source, files[i])
		}
		if pair.Lesson.Name() != lessons[i].Name() {
			t.Fatalf("pair %d lesson = %q, want %q", i, pair.Lesson.Name(), lessons[i].Name())
		}
	}
}

func TestPairsCountMismatch(t *testing.T) {
	pairs, err := Pairs([]string{"/cache/1.mp4", "/cache/2.mp4"}, threeLessons(t))
	if pairs != nil {
		t.Fatalf("expected no partial result, got %d pairs", len(pairs))
	}
	if !errors.Is(err, services.ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
	var mismatch *CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *CountMismatchError, got %T", err)
	}
	if mismatch.Local != 2 || mismatch.Remote != 3 {
		t.Fatalf("unexpected counts: local=%d remote=%d", mismatch.Local, mismatch.Remote)
	}
	if !services.IsFatal(err) {
		t.Fatal("count mismatch must be fatal")
	}
}

func TestPairsEmpty(t *testing.T) {
	pairs, err := Pairs(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
}
