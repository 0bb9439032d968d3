package staging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"curator/internal/logging"
)

// CleanupResult lists what Cleanup deleted.
type CleanupResult struct {
	RemovedFiles []string
	RemovedDirs  []string
}

// Cleanup deletes every cached file whose name does not end in a kept
// suffix (the defaults, the configured extras and extraKeptSuffixes), then
// prunes directories left empty, deepest first. Directories that still hold
// files are never removed.
func (w *Wizard) Cleanup(ctx context.Context, extraKeptSuffixes ...string) (CleanupResult, error) {
	result := CleanupResult{}

	kept := append(append([]string(nil), w.kept...), normalizeSuffixes(extraKeptSuffixes)...)
	files, err := w.store.List(ctx, w.cache)
	if err != nil {
		return result, err
	}
	for _, file := range files {
		if hasSuffix(file, kept) {
			continue
		}
		if err := w.store.Remove(ctx, file); err != nil {
			return result, err
		}
		result.RemovedFiles = append(result.RemovedFiles, file)
	}

	dirs, err := w.store.RemoveEmptyDirs(ctx, w.cache)
	result.RemovedDirs = dirs
	if err != nil {
		return result, err
	}

	w.logger.Info("staging cache cleaned",
		logging.Int("removed_files", len(result.RemovedFiles)),
		logging.Int("removed_dirs", len(result.RemovedDirs)),
		logging.String(logging.FieldEventType, "staging_cleanup"),
	)
	return result, nil
}

func hasSuffix(path string, suffixes []string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// CacheInfo describes a staging cache left behind in the library.
type CacheInfo struct {
	Course  string
	Path    string
	ModTime time.Time
	Size    int64
	Files   int
}

// PendingCaches returns the staging caches found one and two levels below
// libraryDir, i.e. courses whose last run kept its cache for a retry.
func PendingCaches(libraryDir string) ([]CacheInfo, error) {
	libraryDir = strings.TrimSpace(libraryDir)
	if libraryDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(libraryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var caches []CacheInfo
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		courseDir := filepath.Join(libraryDir, entry.Name())
		if info, ok := statCache(courseDir, entry.Name()); ok {
			caches = append(caches, info)
			continue
		}
		// Bundle members keep their caches one level deeper.
		members, err := os.ReadDir(courseDir)
		if err != nil {
			continue
		}
		for _, member := range members {
			if !member.IsDir() || strings.HasPrefix(member.Name(), ".") {
				continue
			}
			if info, ok := statCache(filepath.Join(courseDir, member.Name()), filepath.Join(entry.Name(), member.Name())); ok {
				caches = append(caches, info)
			}
		}
	}
	return caches, nil
}

func statCache(courseDir, course string) (CacheInfo, bool) {
	cache := filepath.Join(courseDir, CacheDirName)
	info, err := os.Stat(cache)
	if err != nil || !info.IsDir() {
		return CacheInfo{}, false
	}
	size, files := dirSize(cache)
	return CacheInfo{
		Course:  course,
		Path:    cache,
		ModTime: info.ModTime(),
		Size:    size,
		Files:   files,
	}, true
}

// dirSize sums regular file sizes below path, best effort.
func dirSize(path string) (int64, int) {
	var size int64
	var files int
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files
}
