package workflow

import (
	"context"

	"curator/internal/ledger"
	"curator/internal/pipeline"
)

// Recorder persists run history.
type Recorder interface {
	StartRun(ctx context.Context, slug, source, libraryDir string) (*ledger.Run, error)
	SetCourse(ctx context.Context, runID, course string) error
	RecordItem(ctx context.Context, item ledger.Item) (int64, error)
	FinishRun(ctx context.Context, run *ledger.Run) error
}

func ledgerItem(runID string, position int, item pipeline.Item) ledger.Item {
	entry := ledger.Item{
		RunID:     runID,
		Position:  position,
		Lesson:    item.Lesson.CanonicalPath(),
		Source:    item.Source,
		Output:    item.Output,
		State:     item.State.String(),
		Subtitle:  item.Subtitle.String(),
		Thumbnail: item.Thumbnail,
		Elapsed:   item.Elapsed,
	}
	if item.Err != nil {
		entry.ErrorMessage = item.Err.Error()
	}
	return entry
}

func runStatus(err error, failures int) ledger.Status {
	switch {
	case err != nil:
		return ledger.StatusFailed
	case failures > 0:
		return ledger.StatusPartial
	default:
		return ledger.StatusCompleted
	}
}
