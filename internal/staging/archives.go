package staging

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"curator/internal/logging"
)

const (
	// ArchivesDir holds repacked code archives below the course directory.
	ArchivesDir = "Files/Archives"
	// DocumentsDir holds flat-mode documents below the course directory.
	DocumentsDir = "Files/Documents"

	repackSuffix = ".zip.part"
)

// ArchiveResult lists what ExtractZips produced.
type ArchiveResult struct {
	CodeArchives []string
	Documents    []string
}

// IsDocumentEntry reports whether an archive entry is a document that
// belongs with the course PDFs rather than in a code archive.
func IsDocumentEntry(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}

// ArchiveName returns the code archive name for the index-th (1-based) of
// total staged archives.
func ArchiveName(index, total int) string {
	if total <= 1 {
		return "code.zip"
	}
	return fmt.Sprintf("code-%02d.zip", index)
}

// ExtractZips splits every staged zip archive, in natural order, into its
// documents, extracted into the cache for document placement, and the rest,
// repacked as Files/Archives/code.zip (or code-NN.zip when there are several).
// Each staged archive is removed once split. An archive holding only
// documents produces no code archive and takes no number.
func (w *Wizard) ExtractZips(ctx context.Context) (ArchiveResult, error) {
	result := ArchiveResult{}
	archives, err := w.store.List(ctx, w.cache, ".zip")
	if err != nil {
		return result, err
	}

	// Code entries are repacked into the cache first; names depend on how
	// many archives turn out to hold code.
	var repacked []string
	for i, archive := range archives {
		docs, err := w.store.Extract(ctx, archive, w.cache, IsDocumentEntry)
		if err != nil {
			return result, err
		}
		result.Documents = append(result.Documents, docs...)

		pending := filepath.Join(w.cache, fmt.Sprintf("repack-%02d%s", i+1, repackSuffix))
		n, err := w.store.Repack(ctx, archive, pending, func(name string) bool { return !IsDocumentEntry(name) })
		if err != nil {
			return result, err
		}
		if n > 0 {
			repacked = append(repacked, pending)
		}
		if err := w.store.Remove(ctx, archive); err != nil {
			return result, err
		}
		w.logger.Info("archive split",
			logging.String("archive", filepath.Base(archive)),
			logging.Int("documents", len(docs)),
			logging.Int("code_entries", n),
			logging.String(logging.FieldEventType, "archive_split"),
		)
	}

	archiveDir := filepath.Join(w.target, filepath.FromSlash(ArchivesDir))
	for i, pending := range repacked {
		dst := filepath.Join(archiveDir, ArchiveName(i+1, len(repacked)))
		if err := w.store.Move(ctx, pending, dst); err != nil {
			return result, err
		}
		result.CodeArchives = append(result.CodeArchives, dst)
	}
	return result, nil
}
