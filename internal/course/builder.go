package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"curator/internal/catalog"
	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/textutil"
)

// Builder constructs course trees from catalog pages.
type Builder struct {
	client          catalog.Client
	classifier      Classifier
	strictDurations bool
	logger          *slog.Logger
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithStrictDurations makes a malformed lesson duration fatal instead of 0.
func WithStrictDurations(strict bool) BuilderOption {
	return func(b *Builder) { b.strictDurations = strict }
}

// WithLogger sets the logger used for duration warnings.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder returns a builder that fetches pages with client. client may be
// nil when only Leaf is used.
func NewBuilder(client catalog.Client, classifier Classifier, opts ...BuilderOption) *Builder {
	b := &Builder{
		client:     client,
		classifier: classifier,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "course")
	return b
}

// Load fetches slug and builds its course. Bundle members are fetched in
// catalog order and built as derived children; a member that is itself a
// bundle is ErrMalformedCatalog.
func (b *Builder) Load(ctx context.Context, slug string) (Course, error) {
	if b.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "course", "load", "no catalog client configured", nil)
	}
	page, err := b.client.Fetch(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !page.IsBundle() {
		return b.build(page, false, "")
	}

	// A bare member list carries no header; the slug names the bundle.
	name, imageURL := slug, ""
	if page.Course != nil {
		name, imageURL = page.Course.Name, page.Course.ImageURL
	}
	dirName := CanonicalName(name, false)
	if dirName == "" {
		return nil, emptyNameError(name)
	}
	bundle := &BundleCourse{
		name:     strings.TrimSpace(name),
		dirName:  dirName,
		imageURL: strings.TrimSpace(imageURL),
	}
	for _, member := range page.Members() {
		memberPage, err := b.client.Fetch(ctx, member.Slug)
		if err != nil {
			return nil, fmt.Errorf("bundle member %q: %w", member.Slug, err)
		}
		if memberPage.IsBundle() {
			return nil, services.Wrap(
				services.ErrMalformedCatalog,
				"course",
				"load",
				fmt.Sprintf("bundle member %q is itself a bundle", member.Slug),
				nil,
			)
		}
		child, err := b.build(memberPage, true, dirName)
		if err != nil {
			return nil, fmt.Errorf("bundle member %q: %w", member.Slug, err)
		}
		bundle.children = append(bundle.children, child)
	}
	b.logger.Debug("bundle built",
		logging.String("course", bundle.name),
		logging.Int("members", len(bundle.children)),
	)
	return bundle, nil
}

// Leaf builds a standalone leaf course from an already fetched page.
func (b *Builder) Leaf(page catalog.Page) (*LeafCourse, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if page.IsBundle() {
		return nil, services.Wrap(services.ErrMalformedCatalog, "course", "build", fmt.Sprintf("page lists %d member courses", len(page.Members())), nil)
	}
	return b.build(page, false, "")
}

func (b *Builder) build(page catalog.Page, derived bool, parentDir string) (*LeafCourse, error) {
	dirName := CanonicalName(page.Course.Name, derived)
	if dirName == "" {
		return nil, emptyNameError(page.Course.Name)
	}
	leaf := &LeafCourse{
		name:      strings.TrimSpace(page.Course.Name),
		dirName:   dirName,
		parentDir: parentDir,
		derived:   derived,
		imageURL:  strings.TrimSpace(page.Course.ImageURL),
		sections:  make([]Section, 0, len(page.Curriculum)),
	}
	courseDir := leaf.Dir()
	for i, raw := range page.Curriculum {
		section := Section{
			name:  textutil.NormalizeName(raw.Name),
			index: i + 1,
		}
		section.path = filepath.Join(courseDir, positionalName(section.index, section.name))
		section.lessons = make([]Lesson, 0, len(raw.Lessons))
		for j, rawLesson := range raw.Lessons {
			name := textutil.NormalizeName(rawLesson.Name)
			seconds, err := b.duration(rawLesson, name)
			if err != nil {
				return nil, err
			}
			section.lessons = append(section.lessons, Lesson{
				name:         name,
				kind:         b.classifier.Classify(rawLesson.Type, name),
				duration:     seconds,
				index:        j + 1,
				sectionName:  section.name,
				sectionIndex: section.index,
				sectionPath:  section.path,
			})
			section.duration += seconds
		}
		leaf.sections = append(leaf.sections, section)
	}
	return leaf, nil
}

func (b *Builder) duration(raw catalog.RawLesson, name string) (int, error) {
	seconds, err := ParseDuration(raw.Duration)
	if err == nil {
		return seconds, nil
	}
	if b.strictDurations || !errors.Is(err, services.ErrMalformedDuration) {
		return 0, fmt.Errorf("lesson %q: %w", name, err)
	}
	logging.WarnWithContext(b.logger, "lesson duration malformed; recording 0", "duration_malformed",
		logging.String("lesson_name", name),
		logging.String("raw_duration", raw.Duration),
		logging.String(logging.FieldErrorHint, "set catalog.strict_durations = true to abort on malformed durations"),
		logging.String(logging.FieldImpact, "course duration totals undercount this lesson"),
	)
	return 0, nil
}

func emptyNameError(raw string) error {
	return services.Wrap(
		services.ErrMalformedCatalog,
		"course",
		"build",
		fmt.Sprintf("course name %q is empty after removing marketing keywords", raw),
		nil,
	)
}
