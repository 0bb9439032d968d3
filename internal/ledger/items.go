package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const itemColumns = "id, run_id, position, lesson, source, output, state, subtitle, thumbnail, error_message, elapsed_ms, created_at"

// RecordItem appends one lesson outcome to a run.
func (s *Store) RecordItem(ctx context.Context, item Item) (int64, error) {
	if strings.TrimSpace(item.RunID) == "" {
		return 0, fmt.Errorf("record item: run id is required")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	res, err := s.exec(ctx,
		`INSERT INTO items (run_id, position, lesson, source, output, state, subtitle, thumbnail, error_message, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.RunID, item.Position, item.Lesson, item.Source, nullString(item.Output), item.State,
		nullString(item.Subtitle), nullString(item.Thumbnail), nullString(item.ErrorMessage),
		item.Elapsed.Milliseconds(), formatTime(item.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return res.LastInsertId()
}

// Items lists a run's items in processing order.
func (s *Store) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE run_id = ? ORDER BY position, id", runID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item       Item
			output     sql.NullString
			subtitle   sql.NullString
			thumbnail  sql.NullString
			errMessage sql.NullString
			elapsedMS  int64
			createdRaw sql.NullString
		)
		if err := rows.Scan(
			&item.ID,
			&item.RunID,
			&item.Position,
			&item.Lesson,
			&item.Source,
			&output,
			&item.State,
			&subtitle,
			&thumbnail,
			&errMessage,
			&elapsedMS,
			&createdRaw,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Output = output.String
		item.Subtitle = subtitle.String
		item.Thumbnail = thumbnail.String
		item.ErrorMessage = errMessage.String
		item.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		item.CreatedAt = parseTime(createdRaw)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Prune deletes runs started before cutoff together with their items.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM runs WHERE started_at < ? AND status != ?`, formatTime(cutoff), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
