package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var pruneOlderThan time.Duration

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List past runs, or the lessons of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer ctx.close()
			out := cmd.OutOrStdout()

			if pruneOlderThan > 0 {
				n, err := store.Prune(cmd.Context(), time.Now().Add(-pruneOlderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d run(s) older than %s\n", n, pruneOlderThan)
				return nil
			}

			if len(args) == 1 {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				items, err := store.Items(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				renderRunDetail(out, *run, items)
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRunTable(runs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 lists all)")
	cmd.Flags().DurationVar(&pruneOlderThan, "prune-older-than", 0, "Delete finished runs started longer ago than this duration")
	return cmd
}

func renderRunTable(runs []ledger.Run, now time.Time) string {
	headers := []string{"Run", "Started", "Slug", "Status", "Remuxed", "Skipped", "Failed", "Elapsed"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			run.Slug,
			string(run.Status),
			strconv.Itoa(run.Submitted),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.Failed),
			formatElapsed(run.Elapsed()),
		})
	}
	return renderTable(headers, rows, aligns)
}

func renderRunDetail(out io.Writer, run ledger.Run, items []ledger.Item) {
	fmt.Fprintf(out, "Run:       %s\n", run.ID)
	fmt.Fprintf(out, "Slug:      %s\n", run.Slug)
	if run.Course != "" {
		fmt.Fprintf(out, "Course:    %s\n", run.Course)
	}
	fmt.Fprintf(out, "Status:    %s\n", run.Status)
	fmt.Fprintf(out, "Started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.Finished() {
		fmt.Fprintf(out, "Elapsed:   %s\n", formatElapsed(run.Elapsed()))
	}
	if run.Source != "" {
		fmt.Fprintf(out, "Source:    %s\n", run.Source)
	}
	fmt.Fprintf(out, "Documents: %d\n", run.Documents)
	fmt.Fprintf(out, "Archives:  %d\n", run.Archives)
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", run.ErrorMessage)
	}
	if len(items) == 0 {
		return
	}

	headers := []string{"#", "Lesson", "State", "Subtitle", "Elapsed", "Error"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(item.Position),
			item.Lesson,
			item.State,
			item.Subtitle,
			formatElapsed(item.Elapsed),
			truncate(item.ErrorMessage, 60),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len([]rune(value)) <= max {
		return value
	}
	return string([]rune(value)[:max-1]) + "…"
}
