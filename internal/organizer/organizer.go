package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"curator/internal/course"
	"curator/internal/logging"
	"curator/internal/reconcile"
	"curator/internal/services"
	"curator/internal/staging"
	"curator/internal/storage"
	"curator/internal/textutil"
)

// DocumentExtension is the only staged file type the organizer places.
const DocumentExtension = ".pdf"

// Mode selects how documents are placed.
type Mode int

const (
	ModeFlat Mode = iota
	ModeOrganized
)

func (m Mode) String() string {
	if m == ModeOrganized {
		return "organized"
	}
	return "flat"
}

// ModeFor maps the documents.organize setting to a Mode.
func ModeFor(organize bool) Mode {
	if organize {
		return ModeOrganized
	}
	return ModeFlat
}

// Placement records one moved document.
type Placement struct {
	Source      string
	Destination string
	// Lesson is set in organized mode.
	Lesson string
}

// Organizer moves staged documents into the library.
type Organizer struct {
	store      storage.Storage
	libraryDir string
	logger     *slog.Logger
}

// New constructs an organizer writing below libraryDir.
func New(store storage.Storage, libraryDir string, logger *slog.Logger) *Organizer {
	return &Organizer{
		store:      store,
		libraryDir: libraryDir,
		logger:     logging.NewComponentLogger(logger, "organizer"),
	}
}

// Place moves every staged PDF below cache according to mode.
func (o *Organizer) Place(ctx context.Context, c course.Course, cache string, mode Mode) ([]Placement, error) {
	files, err := o.store.List(ctx, cache, DocumentExtension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		o.logger.Debug("no staged documents", logging.String("cache", cache))
		return nil, nil
	}
	var placements []Placement
	if mode == ModeOrganized {
		placements, err = o.organized(ctx, c, files)
	} else {
		placements, err = o.flat(ctx, c, files)
	}
	if err != nil {
		return placements, err
	}
	o.logger.Info("documents placed",
		logging.String("mode", mode.String()),
		logging.Int("documents", len(placements)),
		logging.String(logging.FieldEventType, "documents_placed"),
	)
	return placements, nil
}

func (o *Organizer) organized(ctx context.Context, c course.Course, files []string) ([]Placement, error) {
	pairs, err := reconcile.Pairs(files, c.FlattenLessons(course.Document))
	if err != nil {
		logging.ErrorWithContext(o.logger, "document count does not match the catalog", "documents_mismatch",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set documents.organize = false to place them flat"),
		)
		return nil, services.Wrap(services.ErrCountMismatch, "organizer", "pair documents", c.Name(), err)
	}
	placements := make([]Placement, 0, len(pairs))
	for _, pair := range pairs {
		dst := filepath.Join(o.libraryDir, pair.Lesson.CanonicalPath()) + DocumentExtension
		if err := o.move(ctx, pair.Source, dst); err != nil {
			return placements, err
		}
		placements = append(placements, Placement{Source: pair.Source, Destination: dst, Lesson: pair.Lesson.CanonicalPath()})
	}
	return placements, nil
}

func (o *Organizer) flat(ctx context.Context, c course.Course, files []string) ([]Placement, error) {
	dir := filepath.Join(o.libraryDir, c.Dir(), filepath.FromSlash(staging.DocumentsDir))
	placements := make([]Placement, 0, len(files))
	for i, src := range files {
		dst := filepath.Join(dir, FlatName(i+1, filepath.Base(src)))
		if err := o.move(ctx, src, dst); err != nil {
			return placements, err
		}
		placements = append(placements, Placement{Source: src, Destination: dst})
	}
	return placements, nil
}

func (o *Organizer) move(ctx context.Context, src, dst string) error {
	if err := ValidateDocument(src); err != nil {
		logging.WarnWithContext(o.logger, "staged document is not a PDF", "document_not_pdf",
			logging.String("source", src),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file is placed anyway"),
		)
	}
	if err := o.store.Move(ctx, src, dst); err != nil {
		return err
	}
	o.logger.Debug("document placed", logging.String("source", src), logging.String("destination", dst))
	return nil
}

// FlatName is the flat-mode file name of the index-th (1-based) document.
func FlatName(index int, original string) string {
	return fmt.Sprintf("%02d- %s", index, textutil.SanitizeFileName(original))
}
