package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	stageKey  contextKey = "stage"
	lessonKey contextKey = "lesson"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the workflow stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithLesson annotates context with the canonical path of the lesson being processed.
func WithLesson(ctx context.Context, lessonPath string) context.Context {
	if lessonPath == "" {
		return ctx
	}
	return context.WithValue(ctx, lessonKey, lessonPath)
}

// LessonFromContext returns the lesson path if present.
func LessonFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(lessonKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
