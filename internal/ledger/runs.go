package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, slug, course, source, library_dir, status, submitted, skipped, failed, documents, archives, error_message, started_at, finished_at"

// StartRun opens a run row in the running state.
func (s *Store) StartRun(ctx context.Context, slug, source, libraryDir string) (*Run, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errors.New("slug is required")
	}
	run := &Run{
		ID:         newRunID(),
		Slug:       slug,
		Source:     strings.TrimSpace(source),
		LibraryDir: libraryDir,
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, slug, source, library_dir, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Slug, nullString(run.Source), run.LibraryDir, run.Status, formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// SetCourse records the resolved course name once the catalog was read.
func (s *Store) SetCourse(ctx context.Context, runID, course string) error {
	_, err := s.exec(ctx, `UPDATE runs SET course = ? WHERE id = ?`, nullString(course), runID)
	if err != nil {
		return fmt.Errorf("update run course: %w", err)
	}
	return nil
}

// FinishRun stores the run's counters and final status.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET course = ?, status = ?, submitted = ?, skipped = ?, failed = ?, documents = ?, archives = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		nullString(run.Course), run.Status, run.Submitted, run.Skipped, run.Failed, run.Documents, run.Archives,
		nullString(run.ErrorMessage), formatTime(run.FinishedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, run.ID)
	}
	return nil
}

// RecentRuns lists runs newest first. A non-positive limit lists all.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// FindRun resolves a full run id or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(idOrPrefix)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY started_at DESC LIMIT 2`,
		escaped+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return found[0], nil
	default:
		if found[0].ID == idOrPrefix {
			return found[0], nil
		}
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		course      sql.NullString
		source      sql.NullString
		status      string
		errMessage  sql.NullString
		startedRaw  sql.NullString
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Slug,
		&course,
		&source,
		&run.LibraryDir,
		&status,
		&run.Submitted,
		&run.Skipped,
		&run.Failed,
		&run.Documents,
		&run.Archives,
		&errMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Course = course.String
	run.Source = source.String
	run.Status = Status(status)
	run.ErrorMessage = errMessage.String
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	return &run, nil
}
