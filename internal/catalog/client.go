package catalog

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"curator/internal/config"
	"curator/internal/services"
)

// maxPageBytes bounds the decoded size of a catalog page.
const maxPageBytes = 32 << 20

// Client resolves a course or bundle slug into a catalog page.
type Client interface {
	Fetch(ctx context.Context, slug string) (Page, error)
}

// ImageDownloader saves a course image next to a local path stem.
type ImageDownloader interface {
	// DownloadImage writes the image to stem plus an extension matching its
	// type and returns the written path.
	DownloadImage(ctx context.Context, imageURL, stem string) (string, error)
}

// imageExtensions maps the image types an attachment can carry to the
// extension they are saved with.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// HTTPDoer describes the HTTP client used by the catalog client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient fetches catalog pages over HTTP.
type HTTPClient struct {
	baseURL   string
	userAgent string
	client    HTTPDoer
}

// NewHTTPClient constructs an HTTP catalog client. A nil doer uses a client
// with the supplied timeout.
func NewHTTPClient(baseURL, userAgent string, timeout time.Duration, doer HTTPDoer) *HTTPClient {
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		userAgent: strings.TrimSpace(userAgent),
		client:    doer,
	}
}

// NewConfiguredClient builds the catalog client described by cfg.
func NewConfiguredClient(cfg *config.Config) *HTTPClient {
	return NewHTTPClient(
		cfg.Catalog.BaseURL,
		cfg.Catalog.UserAgent,
		time.Duration(cfg.Catalog.TimeoutSeconds)*time.Second,
		nil,
	)
}

// PageURL returns the catalog page address for slug.
func (c *HTTPClient) PageURL(slug string) string {
	return fmt.Sprintf("%s/p/%s/", c.baseURL, url.PathEscape(strings.TrimSpace(slug)))
}

// Fetch downloads the catalog page for slug and decodes its embedded data.
func (c *HTTPClient) Fetch(ctx context.Context, slug string) (Page, error) {
	if strings.TrimSpace(slug) == "" {
		return Page{}, services.Wrap(services.ErrValidation, "catalog", "fetch", "empty course slug", nil)
	}
	body, _, err := c.get(ctx, c.PageURL(slug), "text/html")
	if err != nil {
		return Page{}, err
	}
	payload, err := extractPageData(bytes.NewReader(body))
	if err != nil {
		return Page{}, err
	}
	return DecodePage(payload)
}

// DownloadImage saves the image at imageURL to stem plus ".jpg" or ".png".
// The type comes from the Content-Type header, then the URL path, then the
// content itself. The file is written next to its destination first and
// renamed into place.
func (c *HTTPClient) DownloadImage(ctx context.Context, imageURL, stem string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", services.Wrap(services.ErrValidation, "catalog", "download image", "empty image url", nil)
	}
	body, contentType, err := c.get(ctx, imageURL, "image/*")
	if err != nil {
		return "", err
	}
	ext, err := ImageExtension(contentType, imageURL, body)
	if err != nil {
		return "", err
	}
	destination := stem + ext
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return "", services.Wrap(services.ErrStorageConflict, "catalog", "download image", "create image directory", err)
	}
	tmp := destination + ".part"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return "", services.Wrap(services.ErrStorageConflict, "catalog", "download image", "write image", err)
	}
	if err := os.Rename(tmp, destination); err != nil {
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrStorageConflict, "catalog", "download image", "move image into place", err)
	}
	return destination, nil
}

// ImageExtension picks ".jpg" or ".png" for a downloaded image. A declared
// image type other than those is rejected, as is content nothing identifies.
func ImageExtension(contentType, imageURL string, body []byte) (string, error) {
	if media, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(media, "image/") {
		if ext, ok := imageExtensions[media]; ok {
			return ext, nil
		}
		return "", services.Wrap(services.ErrValidation, "catalog", "download image", fmt.Sprintf("unsupported image type %q", media), nil)
	}
	if u, err := url.Parse(imageURL); err == nil {
		switch ext := strings.ToLower(path.Ext(u.Path)); ext {
		case ".jpg", ".jpeg":
			return ".jpg", nil
		case ".png":
			return ".png", nil
		}
	}
	if ext, ok := imageExtensions[http.DetectContentType(body)]; ok {
		return ext, nil
	}
	return "", services.Wrap(services.ErrValidation, "catalog", "download image", fmt.Sprintf("%s is not a jpeg or png image", imageURL), nil)
}

// get returns the decoded body of target and its Content-Type.
func (c *HTTPClient) get(ctx context.Context, target, accept string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", services.Wrap(services.ErrCatalogUnavailable, "catalog", "build request", target, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Encoding", "br, gzip")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", services.Wrap(services.ErrCatalogUnavailable, "catalog", "request", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", services.Wrap(
			services.ErrCatalogUnavailable,
			"catalog",
			"request",
			fmt.Sprintf("%s returned %d", target, resp.StatusCode),
			nil,
		)
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	body, err := io.ReadAll(io.LimitReader(reader, maxPageBytes+1))
	if err != nil {
		return nil, "", services.Wrap(services.ErrCatalogUnavailable, "catalog", "read body", target, err)
	}
	if len(body) > maxPageBytes {
		return nil, "", services.Wrap(services.ErrCatalogUnavailable, "catalog", "read body", fmt.Sprintf("%s exceeds %d bytes", target, maxPageBytes), nil)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// decodeBody undoes the content encoding negotiated by get. Setting
// Accept-Encoding explicitly disables the transport's transparent gzip.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "decode body", "invalid gzip stream", err)
		}
		return zr, nil
	default:
		return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "decode body", fmt.Sprintf("unsupported content encoding %q", encoding), nil)
	}
}

// extractPageData returns the text of the first <script> element whose type
// mentions json.
func extractPageData(r io.Reader) ([]byte, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, malformed("parse catalog page", err)
	}
	node := findJSONScript(doc)
	if node == nil {
		return nil, malformed("catalog page has no json script tag", nil)
	}
	var buf bytes.Buffer
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			buf.WriteString(child.Data)
		}
	}
	if strings.TrimSpace(buf.String()) == "" {
		return nil, malformed("catalog json script tag is empty", nil)
	}
	return buf.Bytes(), nil
}

func findJSONScript(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Script {
		for _, attr := range n.Attr {
			if strings.EqualFold(attr.Key, "type") && strings.Contains(strings.ToLower(attr.Val), "json") {
				return n
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findJSONScript(child); found != nil {
			return found
		}
	}
	return nil
}
