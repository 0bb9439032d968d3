// Package course models a catalog course as an immutable tree.
//
// A Course is either a LeafCourse (ordered Sections of Lessons) or a
// BundleCourse (ordered member LeafCourses). Each node derives its canonical
// library path from its position and cleaned display name, and
// FlattenLessons yields lessons depth-first in catalog order. That order is
// what staged files are paired against, so nothing in this package ever
// reorders a section or lesson after construction.
package course
