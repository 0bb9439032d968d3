package pipeline

import (
	"time"

	"curator/internal/course"
	"curator/internal/transcode"
)

// State is the position of one item in the per-lesson state machine.
type State int

const (
	StateStart State = iota
	StateFrameExtracted
	StateSubtitleClassified
	StateCommandBuilt
	StateSubmitted
	StateSkipped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFrameExtracted:
		return "frame_extracted"
	case StateSubtitleClassified:
		return "subtitle_classified"
	case StateCommandBuilt:
		return "command_built"
	case StateSubmitted:
		return "submitted"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Item is the outcome of processing one pair.
type Item struct {
	Source    string
	Lesson    course.Lesson
	Output    string
	State     State
	Subtitle  transcode.SubtitleSource
	Thumbnail string
	Err       error
	Elapsed   time.Duration
}

// Result collects the items of one Process call in input order.
type Result struct {
	Items []Item
}

func (r Result) count(state State) int {
	n := 0
	for _, item := range r.Items {
		if item.State == state {
			n++
		}
	}
	return n
}

// Submitted is the number of items remuxed successfully.
func (r Result) Submitted() int { return r.count(StateSubmitted) }

// Skipped is the number of items whose output already existed.
func (r Result) Skipped() int { return r.count(StateSkipped) }

// Failed is the number of items that failed.
func (r Result) Failed() int { return r.count(StateFailed) }
