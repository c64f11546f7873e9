package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/querysync/catalog"
	"github.com/jonwraymond/querysync/query"
)

func newVocabCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vocab",
		Aliases: []string{"vocabulary", "vocabularies"},
		Short:   "List and manage vocabulary",
	}
	cmd.AddCommand(newVocabListCmd(a))
	cmd.AddCommand(newVocabCreateCmd(a))
	cmd.AddCommand(newVocabDeleteCmd(a))
	return cmd
}

func newVocabListCmd(a *app) *cobra.Command {
	var lessonID string
	cmd := &cobra.Command{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List vocabulary, optionally for one lesson",
		Args:        cobra.NoArgs,
		Annotations: screen("/lessons"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			lessons, err := a.catalog.Lessons(ctx)
			if err != nil {
				return err
			}
			words, err := a.catalog.Vocabularies(ctx, lessonID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%-8s %-18s %-18s %-24s %s\n", "ID", "WORD", "PRONUNCIATION", "MEANING", "LESSON")
			for _, v := range words {
				fmt.Fprintf(a.stdout, "%-8s %-18s %-18s %-24s %s\n",
					v.ID, v.Word, v.Pronunciation, v.Meaning, catalog.LessonName(lessons, v.LessonID))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lessonID, "lesson", "", "only this lesson's vocabulary")
	return cmd
}

func newVocabCreateCmd(a *app) *cobra.Command {
	var v catalog.Vocabulary
	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Add a word to a lesson",
		Args:        cobra.NoArgs,
		Annotations: screen("/admin/add-vocabulary"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id, err := a.identity(cmd.Context()); err == nil && id != nil {
				v.AdminEmail = id.Email
			}
			res, err := a.catalog.CreateVocabulary(cmd.Context(), v)
			if err != nil {
				return err
			}
			created, err := query.Decode[catalog.Vocabulary](res.Value)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "created vocabulary %s %q\n", created.ID, created.Word)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&v.Word, "word", "", "the word")
	f.StringVar(&v.Pronunciation, "pronunciation", "", "how to say it")
	f.StringVar(&v.Meaning, "meaning", "", "what it means")
	f.StringVar(&v.WhenToSay, "when", "", "when to use it")
	f.StringVar(&v.LessonID, "lesson", "", "lesson ID")
	return cmd
}

func newVocabDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete ID...",
		Aliases:     []string{"rm"},
		Short:       "Delete vocabulary",
		Args:        cobra.MinimumNArgs(1),
		Annotations: screen("/admin/vocabulary-management"),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if _, err := a.catalog.DeleteVocabulary(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "deleted vocabulary %s\n", id)
			}
			return nil
		},
	}
}
