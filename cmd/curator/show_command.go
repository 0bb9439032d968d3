package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/course"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var catalogFile string

	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Display the course tree and library layout for a slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			builder := course.NewBuilder(
				ctx.catalogClient(cfg, catalogFile),
				course.NewClassifier(cfg.Classification.DocumentKeywords),
				course.WithStrictDurations(cfg.Catalog.StrictDurations),
				course.WithLogger(ctx.baseLogger()),
			)
			c, err := builder.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderCourse(cmd.OutOrStdout(), c)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog-file", "", "Read catalog page data from a JSON file or directory instead of the network")
	return cmd
}

func renderCourse(out io.Writer, c course.Course) {
	fmt.Fprintf(out, "Course:    %s\n", c.Name())
	fmt.Fprintf(out, "Directory: %s\n", c.Dir())
	fmt.Fprintf(out, "Bundle:    %s\n", yesNo(c.IsBundle()))
	fmt.Fprintf(out, "Videos:    %d (%s)\n", len(c.FlattenLessons(course.Video)), course.FormatDuration(c.DurationSeconds()))
	fmt.Fprintf(out, "Documents: %d\n", len(c.FlattenLessons(course.Document)))

	headers := []string{"#", "Lesson", "Kind", "Duration", "Library path"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}
	for _, leaf := range course.LeafCourses(c) {
		var rows [][]string
		for _, section := range leaf.Sections() {
			for _, lesson := range section.Lessons() {
				duration := ""
				if lesson.Kind() == course.Video {
					duration = course.FormatDuration(lesson.DurationSeconds())
				}
				path := ""
				if lesson.Kind() != course.Other {
					path = lesson.CanonicalPath()
				}
				rows = append(rows, []string{
					strconv.Itoa(section.Index()) + "." + strconv.Itoa(lesson.Index()),
					lesson.Name(),
					lesson.Kind().String(),
					duration,
					path,
				})
			}
		}
		title := ""
		if c.IsBundle() {
			title = leaf.Name()
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTitledTable(title, headers, rows, aligns))
	}
}
