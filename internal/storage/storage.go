package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"curator/internal/fileutil"
	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/textutil"
)

// Filter selects archive entries by their slash-separated name.
type Filter func(name string) bool

// Storage is the set of filesystem effects used by a run.
type Storage interface {
	// Move relocates a file or directory. The destination must not exist.
	Move(ctx context.Context, src, dst string) error
	// Extract unpacks archive entries accepted by filter (all when nil) into
	// dst and returns the written file paths.
	Extract(ctx context.Context, archive, dst string, filter Filter) ([]string, error)
	// Repack writes the entries of archive accepted by filter into a new
	// archive at dst and returns how many entries were written. No file is
	// created when nothing matches.
	Repack(ctx context.Context, archive, dst string, filter Filter) (int, error)
	// List returns regular files under root whose extension matches one of
	// exts (case-insensitive; all files when exts is empty), naturally sorted.
	List(ctx context.Context, root string, exts ...string) ([]string, error)
	// RemoveEmptyDirs deletes empty directories below root, deepest first,
	// and returns them. root itself is kept.
	RemoveEmptyDirs(ctx context.Context, root string) ([]string, error)
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	MkdirAll(ctx context.Context, path string) error
}

// Local implements Storage on the host filesystem.
type Local struct {
	logger *slog.Logger
}

var _ Storage = (*Local)(nil)

// NewLocal returns a host filesystem Storage.
func NewLocal(logger *slog.Logger) *Local {
	return &Local{logger: logging.NewComponentLogger(logger, "storage")}
}

func (l *Local) Move(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		return conflict("move", fmt.Sprintf("destination %q already exists", dst), nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return conflict("move", fmt.Sprintf("stat destination %q", dst), err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return conflict("move", "create destination directory", err)
	}
	if err := fileutil.Move(src, dst); err != nil {
		return conflict("move", fmt.Sprintf("%s -> %s", src, dst), err)
	}
	l.logger.Debug("moved", logging.String("source", src), logging.String("destination", dst))
	return nil
}

func (l *Local) List(ctx context.Context, root string, exts ...string) ([]string, error) {
	wanted := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		wanted[ext] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(wanted) > 0 {
			if _, ok := wanted[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, conflict("list", root, err)
	}
	textutil.SortNatural(files)
	return files, nil
}

func (l *Local) RemoveEmptyDirs(ctx context.Context, root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, conflict("prune", root, err)
	}

	// Children sort after their parent, so reverse order visits leaves first.
	slices.Sort(dirs)
	slices.Reverse(dirs)

	var removed []string
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, conflict("prune", dir, err)
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			return removed, conflict("prune", dir, err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

func (l *Local) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return conflict("remove", path, err)
	}
	return nil
}

func (l *Local) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return conflict("remove", path, err)
	}
	return nil
}

func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return conflict("mkdir", path, err)
	}
	return nil
}

func conflict(operation, message string, err error) error {
	return services.Wrap(services.ErrStorageConflict, "storage", operation, message, err)
}
