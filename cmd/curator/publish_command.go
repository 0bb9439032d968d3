package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/publish"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <course-dir>",
		Short: "Upload a course directory over SFTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := args[0]
			if !filepath.IsAbs(dir) && !strings.HasPrefix(dir, "~") {
				// A bare course name resolves inside the library.
				if _, err := os.Stat(dir); err != nil {
					dir = filepath.Join(cfg.Paths.LibraryDir, dir)
				}
			}
			dir, err = config.ExpandPath(dir)
			if err != nil {
				return fmt.Errorf("resolve course directory: %w", err)
			}

			out := cmd.OutOrStdout()
			progress := newUploadProgress(out, treeSize(dir))
			publisher, err := publish.New(publish.FromConfig(cfg.Publish),
				publish.WithLogger(ctx.baseLogger()),
				publish.WithProgress(progress.add),
			)
			if err != nil {
				return err
			}
			summary, err := publisher.Upload(cmd.Context(), dir)
			progress.finish()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Published %d files (%s) to %s in %s\n",
				summary.Files, humanize.Bytes(uint64(summary.Bytes)), summary.RemoteRoot, formatElapsed(summary.Elapsed))
			return nil
		},
	}
}

// treeSize sums regular file sizes below dir, best effort.
func treeSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
