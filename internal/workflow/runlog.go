package workflow

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"curator/internal/logging"
	"curator/internal/textutil"
)

// RunLogDir is the directory below the log directory holding per-run logs.
const RunLogDir = "runs"

// RunLogPath returns the log file of a run started at now.
func RunLogPath(logDir, slug, runID string, now time.Time) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s-%s-%s.log", now.UTC().Format("20060102T150405"), textutil.SanitizeToken(slug), short)
	return filepath.Join(logDir, RunLogDir, name)
}

// runLogger tees base into a JSON log file for the run. Without a log
// directory, or when the file cannot be opened, base is returned unchanged.
func (r *Runner) runLogger(base *slog.Logger, slug, runID string) (*slog.Logger, string) {
	logDir := strings.TrimSpace(r.cfg.Paths.LogDir)
	if logDir == "" {
		return base, ""
	}
	path := RunLogPath(logDir, slug, runID, r.now())
	fileLogger, err := logging.New(logging.Options{
		Level:       r.cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		logging.WarnWithContext(base, "run log unavailable", "run_log_unavailable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run is logged to the main log only"),
		)
		return base, ""
	}
	return logging.TeeLogger(base, fileLogger.Handler()), path
}
