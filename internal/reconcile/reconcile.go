// Package reconcile pairs staged files with course lessons by position.
//
// Pairing never inspects file contents. The i-th file is the i-th lesson, so
// callers must pass files in natural order (see textutil.SortNatural) and
// lessons from course.FlattenLessons.
package reconcile

import (
	"fmt"

	"curator/internal/course"
	"curator/internal/services"
)

// Pair binds one staged file to the lesson it becomes.
type Pair struct {
	Source string
	Lesson course.Lesson
}

// CountMismatchError reports that the number of staged files differs from the
// number of catalog lessons of the requested kind.
type CountMismatchError struct {
	Local  int
	Remote int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("count mismatch: %d local files, %d catalog lessons", e.Local, e.Remote)
}

// Is lets errors.Is match services.ErrCountMismatch.
func (e *CountMismatchError) Is(target error) bool {
	return target == services.ErrCountMismatch
}

// Pairs zips files and lessons positionally. Unequal lengths return a
// *CountMismatchError and no pairs.
func Pairs(files []string, lessons []course.Lesson) ([]Pair, error) {
	if len(files) != len(lessons) {
		return nil, &CountMismatchError{Local: len(files), Remote: len(lessons)}
	}
	pairs := make([]Pair, len(files))
	for i := range files {
		pairs[i] = Pair{Source: files[i], Lesson: lessons[i]}
	}
	return pairs, nil
}
