package publish

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"curator/internal/logging"
	"curator/internal/services"
)

// skipped names are never uploaded.
var skipped = map[string]bool{".cache": true, ".cache.lock": true}

// Summary reports one upload.
type Summary struct {
	RemoteRoot string
	Files      int
	Bytes      int64
	Elapsed    time.Duration
}

// Progress is called after each uploaded file.
type Progress func(remotePath string, size int64)

// Publisher uploads course directories.
type Publisher struct {
	cfg      Config
	dial     Dialer
	logger   *slog.Logger
	progress Progress
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithDialer overrides how sessions are opened (primarily for tests).
func WithDialer(dial Dialer) Option {
	return func(p *Publisher) {
		if dial != nil {
			p.dial = dial
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProgress registers a per-file callback.
func WithProgress(progress Progress) Option {
	return func(p *Publisher) { p.progress = progress }
}

// New validates cfg and constructs a Publisher.
func New(cfg Config, opts ...Option) (*Publisher, error) {
	normalized, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	p := &Publisher{cfg: normalized, dial: DialSFTP, logger: logging.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.logger = logging.NewComponentLogger(p.logger, "publish")
	if strings.TrimSpace(normalized.KnownHosts) == "" {
		logging.WarnWithContext(p.logger, "host key verification disabled", "publish_insecure_host_key",
			logging.String("host", normalized.Host),
			logging.String(logging.FieldErrorHint, "set publish.known_hosts to verify the server key"),
			logging.String(logging.FieldImpact, "the upload trusts any server answering on this address"),
		)
	}
	return p, nil
}

// Upload copies localDir to <remote_dir>/<base name of localDir>.
func (p *Publisher) Upload(ctx context.Context, localDir string) (Summary, error) {
	started := time.Now()
	localDir = filepath.Clean(localDir)
	info, err := os.Stat(localDir)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrValidation, "publish", "stat", localDir, err)
	}
	if !info.IsDir() {
		return Summary{}, services.Wrap(services.ErrValidation, "publish", "stat", localDir+" is not a directory", nil)
	}

	summary := Summary{RemoteRoot: path.Join(p.cfg.RemoteDir, filepath.Base(localDir))}
	remote, err := p.dial(ctx, p.cfg)
	if err != nil {
		return summary, err
	}
	defer remote.Close()

	err = filepath.WalkDir(localDir, func(local string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if skipped[d.Name()] && local != localDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(localDir, local)
		if err != nil {
			return err
		}
		target := path.Join(summary.RemoteRoot, filepath.ToSlash(rel))
		if d.IsDir() {
			if err := remote.MkdirAll(target); err != nil {
				return fmt.Errorf("mkdir %s: %w", target, err)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		n, err := p.uploadFile(remote, local, target)
		if err != nil {
			return err
		}
		summary.Files++
		summary.Bytes += n
		if p.progress != nil {
			p.progress(target, n)
		}
		return nil
	})
	summary.Elapsed = time.Since(started)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
		return summary, services.Wrap(services.ErrExternalTool, "publish", "upload", localDir, err)
	}

	p.logger.Info("course published",
		logging.String("remote", summary.RemoteRoot),
		logging.Int("files", summary.Files),
		logging.Int64("bytes", summary.Bytes),
		logging.Duration("elapsed", summary.Elapsed),
		logging.String(logging.FieldEventType, "publish_complete"),
	)
	return summary, nil
}

func (p *Publisher) uploadFile(remote Remote, local, target string) (int64, error) {
	src, err := os.Open(local)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	part := target + ".part"
	dst, err := remote.Create(part)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", part, err)
	}
	n, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil {
		return n, fmt.Errorf("copy %s: %w", local, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("close %s: %w", part, closeErr)
	}
	if err := remote.Rename(part, target); err != nil {
		return n, fmt.Errorf("rename %s: %w", part, err)
	}
	p.logger.Debug("file uploaded", logging.String("remote", target), logging.Int64("bytes", n))
	return n, nil
}
