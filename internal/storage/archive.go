package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"curator/internal/logging"
)

// resourceForkDir holds macOS metadata twins of real entries (._1.mp4); they
// would otherwise be counted as lessons.
const resourceForkDir = "__MACOSX/"

func (l *Local) Extract(ctx context.Context, archive, dst string, filter Filter) ([]string, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return nil, conflict("extract", fmt.Sprintf("open archive %q", archive), err)
	}
	defer reader.Close()

	var written []string
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if skipEntry(file.Name) {
			continue
		}
		rel := filepath.FromSlash(strings.TrimSuffix(file.Name, "/"))
		if !filepath.IsLocal(rel) {
			return written, conflict("extract", fmt.Sprintf("archive %q has unsafe entry %q", archive, file.Name), nil)
		}
		target := filepath.Join(dst, rel)
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, conflict("extract", target, err)
			}
			continue
		}
		if filter != nil && !filter(file.Name) {
			continue
		}
		if err := extractFile(file, target); err != nil {
			return written, conflict("extract", fmt.Sprintf("%s from %q", file.Name, archive), err)
		}
		written = append(written, target)
	}
	l.logger.Debug("archive extracted",
		logging.String("archive", archive),
		logging.String("destination", dst),
		logging.Int("files", len(written)),
	)
	return written, nil
}

func extractFile(file *zip.File, target string) error {
	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("%q already exists", target)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (l *Local) Repack(ctx context.Context, archive, dst string, filter Filter) (int, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return 0, conflict("repack", fmt.Sprintf("open archive %q", archive), err)
	}
	defer reader.Close()

	var selected []*zip.File
	for _, file := range reader.File {
		if skipEntry(file.Name) || file.FileInfo().IsDir() {
			continue
		}
		if filter == nil || filter(file.Name) {
			selected = append(selected, file)
		}
	}
	if len(selected) == 0 {
		return 0, nil
	}

	if _, err := os.Lstat(dst); err == nil {
		return 0, conflict("repack", fmt.Sprintf("destination %q already exists", dst), nil)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, conflict("repack", "create archive directory", err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, conflict("repack", dst, err)
	}
	if err := writeEntries(ctx, out, selected); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return 0, conflict("repack", fmt.Sprintf("%q -> %q", archive, dst), err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return 0, conflict("repack", dst, err)
	}
	l.logger.Debug("archive repacked",
		logging.String("archive", archive),
		logging.String("destination", dst),
		logging.Int("entries", len(selected)),
	)
	return len(selected), nil
}

func writeEntries(ctx context.Context, w io.Writer, files []*zip.File) error {
	zw := zip.NewWriter(w)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		header := &zip.FileHeader{
			Name:     file.Name,
			Method:   file.Method,
			Modified: file.Modified,
		}
		header.SetMode(file.Mode())
		writer, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := file.Open()
		if err != nil {
			return err
		}
		_, err = io.Copy(writer, src)
		src.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}

func skipEntry(name string) bool {
	return strings.HasPrefix(name, resourceForkDir) || strings.Contains(name, "/"+resourceForkDir)
}
