package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"curator/internal/services"
)

// FileClient serves catalog pages from disk. When Path is a directory each
// slug is read from <Path>/<slug>.json; otherwise every slug resolves to the
// single file at Path, which is enough for a leaf course.
type FileClient struct {
	Path string
}

// NewFileClient returns a client reading page data from path.
func NewFileClient(path string) *FileClient {
	return &FileClient{Path: path}
}

// Fetch reads and decodes the page data for slug.
func (c *FileClient) Fetch(ctx context.Context, slug string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	target, err := c.resolve(slug)
	if err != nil {
		return Page{}, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return Page{}, services.Wrap(services.ErrCatalogUnavailable, "catalog", "read file", target, err)
	}
	return DecodePage(data)
}

func (c *FileClient) resolve(slug string) (string, error) {
	info, err := os.Stat(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrCatalogUnavailable, "catalog", "read file", fmt.Sprintf("%s does not exist", c.Path), nil)
		}
		return "", services.Wrap(services.ErrCatalogUnavailable, "catalog", "read file", c.Path, err)
	}
	if !info.IsDir() {
		return c.Path, nil
	}
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.ContainsAny(slug, `/\`) {
		return "", services.Wrap(services.ErrValidation, "catalog", "read file", fmt.Sprintf("invalid slug %q", slug), nil)
	}
	return filepath.Join(c.Path, slug+".json"), nil
}
