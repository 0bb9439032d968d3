package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/storage"
)

const (
	// CacheDirName is the staging directory inside a course directory.
	CacheDirName = ".cache"
	// ThumbnailStem is the course image inside the cache, without its
	// ".jpg" or ".png" extension.
	ThumbnailStem = "thumbnail"
	lockSuffix    = ".lock"
)

// thumbnailExtensions are the extensions a cached course image may carry.
var thumbnailExtensions = []string{".jpg", ".png"}

// CachedThumbnail returns the course image already saved in cache, or "".
func CachedThumbnail(cache string) string {
	for _, ext := range thumbnailExtensions {
		candidate := filepath.Join(cache, ThumbnailStem+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// DefaultKeptSuffixes are the file suffixes Cleanup never deletes.
var DefaultKeptSuffixes = []string{".mp4", ".mkv", ".srt", ".vtt", ".zip", ".pdf", ".jpg", ".jpeg", ".png"}

// Wizard stages one course download. It is not safe for concurrent use.
type Wizard struct {
	target    string
	cache     string
	store     storage.Storage
	logger    *slog.Logger
	kept      []string
	lock      *flock.Flock
	assembled bool
}

// NewWizard prepares the staging cache under target and takes the cache
// lock. A lock held by another run is ErrStorageConflict. Callers must Close
// the wizard.
func NewWizard(target string, store storage.Storage, logger *slog.Logger, keptSuffixes []string) (*Wizard, error) {
	target = filepath.Clean(strings.TrimSpace(target))
	if target == "." || target == "" {
		return nil, services.Wrap(services.ErrValidation, "staging", "init", "empty course directory", nil)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorageConflict, "staging", "init", "create course directory", err)
	}

	cache := filepath.Join(target, CacheDirName)
	lock := flock.New(cache + lockSuffix)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrStorageConflict, "staging", "lock", cache+lockSuffix, err)
	}
	if !ok {
		return nil, services.Wrap(
			services.ErrStorageConflict,
			"staging",
			"lock",
			fmt.Sprintf("another run is staging %s", target),
			nil,
		)
	}

	kept := make([]string, 0, len(DefaultKeptSuffixes)+len(keptSuffixes))
	kept = append(kept, DefaultKeptSuffixes...)
	kept = append(kept, normalizeSuffixes(keptSuffixes)...)

	return &Wizard{
		target: target,
		cache:  cache,
		store:  store,
		logger: logging.NewComponentLogger(logger, "staging"),
		kept:   kept,
		lock:   lock,
	}, nil
}

// Target returns the course directory.
func (w *Wizard) Target() string { return w.target }

// Cache returns the staging cache directory.
func (w *Wizard) Cache() string { return w.cache }

// Assembled reports whether Assemble has completed.
func (w *Wizard) Assembled() bool { return w.assembled }

// Assemble fills the cache from source: a directory is moved in, a .zip
// archive is extracted. A single top-level directory is flattened one level.
// An empty source resumes from a cache left by an earlier run. Calling it
// again after success does nothing.
func (w *Wizard) Assemble(ctx context.Context, source string) error {
	if w.assembled {
		return nil
	}
	populated, err := dirHasEntries(w.cache)
	if err != nil {
		return services.Wrap(services.ErrStorageConflict, "staging", "assemble", "inspect cache", err)
	}

	source = strings.TrimSpace(source)
	if source == "" {
		if !populated {
			return services.Wrap(services.ErrValidation, "staging", "assemble", fmt.Sprintf("no source given and %s is empty", w.cache), nil)
		}
		w.assembled = true
		w.logger.Info("resuming from existing cache",
			logging.String("cache", w.cache),
			logging.String(logging.FieldEventType, "staging_resume"),
		)
		return nil
	}
	if populated {
		return services.Wrap(
			services.ErrStorageConflict,
			"staging",
			"assemble",
			fmt.Sprintf("%s holds files from an earlier run; rerun without a source to resume or remove it", w.cache),
			nil,
		)
	}

	info, err := os.Stat(source)
	if err != nil {
		return services.Wrap(services.ErrValidation, "staging", "assemble", fmt.Sprintf("source %q", source), err)
	}
	switch {
	case info.IsDir():
		if err := w.store.RemoveAll(ctx, w.cache); err != nil {
			return err
		}
		if err := w.store.Move(ctx, source, w.cache); err != nil {
			return err
		}
	case strings.EqualFold(filepath.Ext(source), ".zip"):
		if err := w.store.MkdirAll(ctx, w.cache); err != nil {
			return err
		}
		if _, err := w.store.Extract(ctx, source, w.cache, nil); err != nil {
			return err
		}
	default:
		return services.Wrap(services.ErrValidation, "staging", "assemble", fmt.Sprintf("source %q is neither a directory nor a .zip archive", source), nil)
	}

	if err := w.flatten(ctx); err != nil {
		return err
	}
	w.assembled = true
	w.logger.Info("source staged",
		logging.String("source", source),
		logging.String("cache", w.cache),
		logging.String(logging.FieldEventType, "staging_assembled"),
	)
	return nil
}

// flatten lifts the contents of a lone top-level directory into the cache.
func (w *Wizard) flatten(ctx context.Context) error {
	entries, err := os.ReadDir(w.cache)
	if err != nil {
		return services.Wrap(services.ErrStorageConflict, "staging", "flatten", "read cache", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}
	// Rename the wrapper first so a child with the same name can move up.
	wrapper := filepath.Join(w.cache, ".flatten-"+entries[0].Name())
	if err := w.store.Move(ctx, filepath.Join(w.cache, entries[0].Name()), wrapper); err != nil {
		return err
	}
	children, err := os.ReadDir(wrapper)
	if err != nil {
		return services.Wrap(services.ErrStorageConflict, "staging", "flatten", "read wrapper directory", err)
	}
	for _, child := range children {
		if err := w.store.Move(ctx, filepath.Join(wrapper, child.Name()), filepath.Join(w.cache, child.Name())); err != nil {
			return err
		}
	}
	return w.store.Remove(ctx, wrapper)
}

// Finalize removes the cache and its lock file when no item failed. With
// failures the cache stays in place so the run can be resumed.
func (w *Wizard) Finalize(ctx context.Context, failures int) error {
	if failures > 0 {
		logging.WarnWithContext(w.logger, "keeping staging cache", "staging_kept",
			logging.String("cache", w.cache),
			logging.Int("failures", failures),
			logging.String(logging.FieldErrorHint, "fix the failed items and rerun without a source to resume"),
			logging.String(logging.FieldImpact, "failed sources remain in the cache"),
		)
		return nil
	}
	if err := w.store.RemoveAll(ctx, w.cache); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := w.store.Remove(ctx, w.cache+lockSuffix); err != nil {
		return err
	}
	w.logger.Info("staging cache removed",
		logging.String("cache", w.cache),
		logging.String(logging.FieldEventType, "staging_finalized"),
	)
	return nil
}

// Close releases the cache lock. It is safe to call more than once.
func (w *Wizard) Close() error {
	if w.lock == nil || !w.lock.Locked() {
		return nil
	}
	if err := w.lock.Unlock(); err != nil {
		return services.Wrap(services.ErrStorageConflict, "staging", "unlock", w.cache+lockSuffix, err)
	}
	return nil
}

func dirHasEntries(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return len(entries) > 0, nil
}

func normalizeSuffixes(suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		suffix = strings.ToLower(strings.TrimSpace(suffix))
		if suffix == "" {
			continue
		}
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		out = append(out, suffix)
	}
	return out
}
