package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/querysync/catalog"
	"github.com/jonwraymond/querysync/mutation"
	"github.com/jonwraymond/querysync/query"
)

func newLessonsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lessons",
		Aliases: []string{"lesson"},
		Short:   "List and manage lessons",
	}
	cmd.AddCommand(newLessonsListCmd(a))
	cmd.AddCommand(newLessonsCreateCmd(a))
	cmd.AddCommand(newLessonsUpdateCmd(a))
	cmd.AddCommand(newLessonsDeleteCmd(a))
	return cmd
}

func newLessonsListCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List one page of lessons",
		Args:        cobra.NoArgs,
		Annotations: screen("/lessons"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.catalog.LessonPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%-8s %-6s %-30s %s\n", "ID", "NUMBER", "NAME", "WORDS")
			for _, l := range p.Items {
				fmt.Fprintf(a.stdout, "%-8s %-6d %-30s %d\n", l.ID, l.Number, l.Name, l.VocabularyCount)
			}
			printPageFooter(a, p.Number, p.Count)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newLessonsCreateCmd(a *app) *cobra.Command {
	var l catalog.Lesson
	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Add a lesson",
		Args:        cobra.NoArgs,
		Annotations: screen("/admin/add-lesson"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.catalog.CreateLesson(cmd.Context(), l)
			if err != nil {
				return err
			}
			created, err := query.Decode[catalog.Lesson](res.Value)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "created lesson %s %q\n", created.ID, created.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&l.Name, "name", "", "lesson name")
	cmd.Flags().IntVar(&l.Number, "number", 0, "lesson number")
	return cmd
}

// newLessonsUpdateCmd edits a lesson through a draft so only the flags
// given change.
func newLessonsUpdateCmd(a *app) *cobra.Command {
	var (
		name   string
		number int
	)
	cmd := &cobra.Command{
		Use:         "update ID",
		Short:       "Rename or renumber a lesson",
		Args:        cobra.ExactArgs(1),
		Annotations: screen("/admin/lesson-management"),
		RunE: func(cmd *cobra.Command, args []string) error {
			lessons, err := a.catalog.Lessons(cmd.Context())
			if err != nil {
				return err
			}
			var draft mutation.Draft[catalog.Lesson]
			for _, l := range lessons {
				if l.ID == args[0] {
					draft.Begin(l.ID, l)
				}
			}
			if !draft.Active() {
				return fmt.Errorf("lesson %s not found", args[0])
			}
			draft.Edit(func(l *catalog.Lesson) {
				if cmd.Flags().Changed("name") {
					l.Name = name
				}
				if cmd.Flags().Changed("number") {
					l.Number = number
				}
				l.VocabularyCount = 0
			})
			if _, err := a.catalog.SaveLessonDraft(cmd.Context(), &draft); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "updated lesson %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new lesson name")
	cmd.Flags().IntVar(&number, "number", 0, "new lesson number")
	return cmd
}

func newLessonsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete ID...",
		Aliases:     []string{"rm"},
		Short:       "Delete lessons",
		Args:        cobra.MinimumNArgs(1),
		Annotations: screen("/admin/lesson-management"),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if _, err := a.catalog.DeleteLesson(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "deleted lesson %s\n", id)
			}
			return nil
		},
	}
}

func printPageFooter(a *app, number, count int) {
	if count == 0 {
		fmt.Fprintln(a.stdout, "(empty)")
		return
	}
	fmt.Fprintf(a.stdout, "%s\npage %d of %d\n", strings.Repeat("-", 50), number, count)
}
