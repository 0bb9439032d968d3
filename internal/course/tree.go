package course

import "path/filepath"

// Lesson is a leaf of the course tree. It is a value; copies share nothing.
type Lesson struct {
	name         string
	kind         MediaKind
	duration     int
	index        int
	sectionName  string
	sectionIndex int
	sectionPath  string
}

func (l Lesson) Name() string { return l.name }
func (l Lesson) Kind() MediaKind { return l.kind }
func (l Lesson) DurationSeconds() int { return l.duration }
func (l Lesson) Index() int { return l.index }
func (l Lesson) SectionName() string { return l.sectionName }
func (l Lesson) SectionIndex() int { return l.sectionIndex }
func (l Lesson) IsFirstInSection() bool { return l.index == 1 }

// CanonicalPath is the library-relative path of the lesson without extension,
// e.g. "Node.js-/01- Getting Started/02- Installing Node".
func (l Lesson) CanonicalPath() string {
	return filepath.Join(l.sectionPath, positionalName(l.index, l.name))
}

// Section is an ordered group of lessons.
type Section struct {
	name     string
	index    int
	path     string
	lessons  []Lesson
	duration int
}

func (s Section) Name() string { return s.name }
func (s Section) Index() int { return s.index }
func (s Section) CanonicalPath() string { return s.path }
func (s Section) DurationSeconds() int { return s.duration }

// Lessons returns a copy of the section's lessons in catalog order.
func (s Section) Lessons() []Lesson {
	out := make([]Lesson, len(s.lessons))
	copy(out, s.lessons)
	return out
}

// Course is implemented by LeafCourse and BundleCourse.
type Course interface {
	Name() string
	IsBundle() bool
	IsDerivedChild() bool
	// CanonicalDirName is the cleaned name of this course alone.
	CanonicalDirName() string
	// Dir is the library-relative directory holding the course.
	Dir() string
	// FlattenLessons returns matching lessons depth-first in catalog order.
	FlattenLessons(kind MediaKind) []Lesson
	DurationSeconds() int
	ImageURL() string
}

// LeafCourse is a course made of sections.
type LeafCourse struct {
	name      string
	dirName   string
	parentDir string
	derived   bool
	imageURL  string
	sections  []Section
}

var (
	_ Course = (*LeafCourse)(nil)
	_ Course = (*BundleCourse)(nil)
)

func (c *LeafCourse) Name() string { return c.name }
func (c *LeafCourse) IsBundle() bool { return false }
func (c *LeafCourse) IsDerivedChild() bool { return c.derived }
func (c *LeafCourse) CanonicalDirName() string { return c.dirName }
func (c *LeafCourse) ImageURL() string { return c.imageURL }

func (c *LeafCourse) Dir() string {
	if c.parentDir == "" {
		return c.dirName
	}
	return filepath.Join(c.parentDir, c.dirName)
}

// Sections returns a copy of the course sections in catalog order.
func (c *LeafCourse) Sections() []Section {
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

func (c *LeafCourse) FlattenLessons(kind MediaKind) []Lesson {
	var out []Lesson
	for _, section := range c.sections {
		for _, lesson := range section.lessons {
			if lesson.kind == kind {
				out = append(out, lesson)
			}
		}
	}
	return out
}

func (c *LeafCourse) DurationSeconds() int {
	total := 0
	for _, section := range c.sections {
		total += section.duration
	}
	return total
}

// BundleCourse is a course made of member courses.
type BundleCourse struct {
	name     string
	dirName  string
	imageURL string
	children []*LeafCourse
}

func (c *BundleCourse) Name() string { return c.name }
func (c *BundleCourse) IsBundle() bool { return true }
func (c *BundleCourse) IsDerivedChild() bool { return false }
func (c *BundleCourse) CanonicalDirName() string { return c.dirName }
func (c *BundleCourse) Dir() string { return c.dirName }
func (c *BundleCourse) ImageURL() string { return c.imageURL }

// Children returns the member courses in catalog order.
func (c *BundleCourse) Children() []*LeafCourse {
	out := make([]*LeafCourse, len(c.children))
	copy(out, c.children)
	return out
}

func (c *BundleCourse) FlattenLessons(kind MediaKind) []Lesson {
	var out []Lesson
	for _, child := range c.children {
		out = append(out, child.FlattenLessons(kind)...)
	}
	return out
}

func (c *BundleCourse) DurationSeconds() int {
	total := 0
	for _, child := range c.children {
		total += child.DurationSeconds()
	}
	return total
}

// LeafCourses returns the leaf courses of c in catalog order: c itself for a
// LeafCourse, the members for a BundleCourse.
func LeafCourses(c Course) []*LeafCourse {
	switch v := c.(type) {
	case *LeafCourse:
		return []*LeafCourse{v}
	case *BundleCourse:
		return v.Children()
	default:
		return nil
	}
}
