package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/ledger"
	"curator/internal/preflight"
	"curator/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, directories and pending staging caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defer ctx.close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, renderStatusLine("Config file", statusInfo, configLabel(ctx.configPath), colorize))
			lines = append(lines, renderStatusLine("Documents", statusInfo, documentsLabel(cfg), colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				kind, detail := statusOK, status.Path
				if !status.Available {
					kind, detail = statusError, status.Detail
					if status.Optional {
						kind = statusWarn
					}
				}
				lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, result := range []preflight.Result{
				preflight.CheckDirectoryAccess("Library", cfg.Paths.LibraryDir),
				preflight.CheckDirectoryAccess("State", cfg.Paths.StateDir),
				preflight.CheckDirectoryAccess("Logs", cfg.Paths.LogDir),
			} {
				lines = append(lines, renderResult(result, colorize))
			}

			if !offline {
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Network", colorize)...)
				lines = append(lines, renderResult(preflight.CheckCatalogFromConfig(cmd.Context(), cfg), colorize))
				lines = append(lines, renderResult(preflight.CheckPublishFromConfig(cmd.Context(), cfg), colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Staging caches", colorize)...)
			caches, err := staging.PendingCaches(cfg.Paths.LibraryDir)
			if err != nil {
				lines = append(lines, renderStatusLine("Library", statusError, err.Error(), colorize))
			} else if len(caches) == 0 {
				lines = append(lines, renderStatusLine("Pending", statusOK, "none", colorize))
			}
			for _, cache := range caches {
				detail := fmt.Sprintf("%d files, %s, updated %s", cache.Files, humanize.Bytes(uint64(cache.Size)), humanize.Time(cache.ModTime))
				lines = append(lines, renderStatusLine(cache.Course, statusWarn, detail, colorize))
			}

			if store, err := ctx.openLedger(); err == nil {
				if runs, err := store.RecentRuns(cmd.Context(), 1); err == nil && len(runs) > 0 {
					last := runs[0]
					lines = append(lines, "")
					lines = append(lines, renderSectionHeader("Last run", colorize)...)
					kind := statusOK
					switch last.Status {
					case ledger.StatusPartial, ledger.StatusRunning:
						kind = statusWarn
					case ledger.StatusFailed:
						kind = statusError
					}
					detail := fmt.Sprintf("%s %s (%s)", shortID(last.ID), last.Slug, humanize.RelTime(last.StartedAt, time.Now(), "ago", "from now"))
					lines = append(lines, renderStatusLine(string(last.Status), kind, detail, colorize))
				}
			}

			writeLines(out, lines)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip catalog and SFTP reachability checks")
	return cmd
}

func renderResult(result preflight.Result, colorize bool) string {
	kind := statusOK
	if !result.Passed {
		kind = statusError
	}
	return renderStatusLine(result.Name, kind, result.Detail, colorize)
}

func configLabel(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}

func documentsLabel(cfg *config.Config) string {
	if cfg.Documents.Organize {
		return "organized by lesson"
	}
	return "flat under " + staging.DocumentsDir
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
