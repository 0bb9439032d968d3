package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"curator/internal/pipeline"
	"curator/internal/workflow"
)

// runProgress renders workflow hooks as a progress bar on a terminal and
// as one line per event otherwise.
type runProgress struct {
	out         io.Writer
	interactive bool
	bar         *progressbar.ProgressBar
	total       int
	done        int
}

func newRunProgress(out io.Writer) *runProgress {
	return &runProgress{out: out, interactive: shouldColorize(out)}
}

func (p *runProgress) hooks() workflow.Hooks {
	return workflow.Hooks{
		OnStage: p.stage,
		OnPairs: p.pairs,
		OnItem:  p.item,
	}
}

func (p *runProgress) stage(name string) {
	p.finishBar()
	fmt.Fprintf(p.out, "==> %s\n", name)
}

func (p *runProgress) pairs(total int) {
	p.total = total
	p.done = 0
	if !p.interactive || total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("remuxing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
	)
}

func (p *runProgress) item(item pipeline.Item) {
	p.done++
	if p.bar != nil {
		p.bar.Describe(item.Lesson.Name())
		_ = p.bar.Add(1)
		return
	}
	line := fmt.Sprintf("[%d/%d] %-9s %s", p.done, p.total, item.State, item.Lesson.CanonicalPath())
	if item.State == pipeline.StateSubmitted && item.Elapsed > 0 {
		line += " (" + item.Elapsed.Round(100*time.Millisecond).String() + ")"
	}
	if item.Err != nil {
		line += ": " + item.Err.Error()
	}
	fmt.Fprintln(p.out, line)
}

func (p *runProgress) finishBar() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

// uploadProgress renders publish progress in bytes.
type uploadProgress struct {
	out   io.Writer
	bar   *progressbar.ProgressBar
	files int
	bytes int64
}

func newUploadProgress(out io.Writer, totalBytes int64) *uploadProgress {
	p := &uploadProgress{out: out}
	if shouldColorize(out) && totalBytes > 0 {
		p.bar = progressbar.NewOptions64(totalBytes,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("uploading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
		)
	}
	return p
}

func (p *uploadProgress) add(remotePath string, size int64) {
	p.files++
	p.bytes += size
	if p.bar != nil {
		_ = p.bar.Add64(size)
		return
	}
	fmt.Fprintf(p.out, "  %s (%s)\n", remotePath, humanize.Bytes(uint64(size)))
}

func (p *uploadProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
