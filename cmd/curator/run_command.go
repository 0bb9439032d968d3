package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/deps"
	"curator/internal/media/ffprobe"
	"curator/internal/preflight"
	"curator/internal/publish"
	"curator/internal/storage"
	"curator/internal/transcode"
	"curator/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var catalogFile string
	var publishFlag bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run <slug> [source]",
		Short: "Stage a downloaded course and add it to the library",
		Long: `Fetch the course tree for <slug>, stage [source] (a directory or zip archive),
remux every video lesson into the library and place the course documents.

Without [source] the run resumes from the staging cache a previous run kept.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defer ctx.close()

			if !skipPreflight {
				if err := preflight.Err(preflight.RunAll(cmd.Context(), cfg)); err != nil {
					return err
				}
			}

			req := workflow.Request{Slug: args[0], Publish: publishFlag || cfg.Publish.Enabled}
			if len(args) > 1 {
				source, err := config.ExpandPath(strings.TrimSpace(args[1]))
				if err != nil {
					return fmt.Errorf("resolve source: %w", err)
				}
				req.Source = source
			}

			out := cmd.OutOrStdout()
			runner, err := ctx.newRunner(cfg, catalogFile, req.Publish, newRunProgress(out))
			if err != nil {
				return err
			}
			report, runErr := runner.Run(cmd.Context(), req)
			printRunReport(out, report)
			if runErr != nil {
				return runErr
			}
			if failures := report.Failures(); failures > 0 {
				return fmt.Errorf("%d lesson(s) failed; rerun `curator run %s` to retry them", failures, req.Slug)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog-file", "", "Read catalog page data from a JSON file or directory instead of the network")
	cmd.Flags().BoolVar(&publishFlag, "publish", false, "Upload the course over SFTP after a clean run")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip binary and directory checks")
	return cmd
}

func (c *commandContext) newRunner(cfg *config.Config, catalogFile string, withPublisher bool, progress *runProgress) (*workflow.Runner, error) {
	logger := c.baseLogger()
	store, err := c.openLedger()
	if err != nil {
		return nil, err
	}

	d := workflow.Deps{
		Catalog:    c.catalogClient(cfg, catalogFile),
		Images:     catalog.NewConfiguredClient(cfg),
		Storage:    storage.NewLocal(logger),
		Inspector:  ffprobe.New(deps.ResolveBinary(cfg.Media.FFprobeBinary, "ffprobe")),
		Transcoder: transcode.NewFFmpeg(deps.ResolveBinary(cfg.Media.FFmpegBinary, "ffmpeg"), transcode.WithLogger(logger)),
		Ledger:     store,
	}
	if withPublisher {
		publisher, err := publish.New(publish.FromConfig(cfg.Publish), publish.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		d.Publisher = publisher
	}

	var hooks workflow.Hooks
	if progress != nil {
		hooks = progress.hooks()
	}
	return workflow.NewRunner(cfg, d, workflow.WithLogger(logger), workflow.WithHooks(hooks)), nil
}

func printRunReport(out io.Writer, report workflow.Report) {
	if report.RunID == "" {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run:        %s\n", report.RunID)
	if report.Course != nil {
		fmt.Fprintf(out, "Course:     %s\n", report.Course.Name())
		fmt.Fprintf(out, "Directory:  %s\n", report.CourseDir)
	}
	fmt.Fprintf(out, "Lessons:    %d remuxed, %d skipped, %d failed\n",
		report.Pipeline.Submitted(), report.Pipeline.Skipped(), report.Pipeline.Failed())
	fmt.Fprintf(out, "Documents:  %d\n", len(report.Documents))
	fmt.Fprintf(out, "Archives:   %d\n", len(report.Archives.CodeArchives))
	if report.CacheKept {
		fmt.Fprintln(out, "Cache:      kept for retry")
	}
	if report.Published != nil {
		fmt.Fprintf(out, "Published:  %s (%d files, %s)\n",
			report.Published.RemoteRoot, report.Published.Files, humanize.Bytes(uint64(report.Published.Bytes)))
	}
	for _, item := range report.Pipeline.Items {
		if item.Err == nil {
			continue
		}
		fmt.Fprintf(out, "  failed: %s: %v\n", item.Lesson.CanonicalPath(), item.Err)
	}
	if report.LogPath != "" {
		fmt.Fprintf(out, "Log:        %s\n", report.LogPath)
	}
}
