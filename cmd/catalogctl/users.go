package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/querysync/mutation"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "List users and change roles",
	}
	cmd.AddCommand(newUsersListCmd(a))
	cmd.AddCommand(newRoleCmd(a, "promote", "Make users admins", a.promote))
	cmd.AddCommand(newRoleCmd(a, "demote", "Make admins regular users", a.demote))
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List one page of users",
		Args:        cobra.NoArgs,
		Annotations: screen("/admin/manage-users"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.catalog.UserPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%-12s %-20s %-30s %s\n", "ID", "NAME", "EMAIL", "ROLE")
			for _, u := range p.Items {
				fmt.Fprintf(a.stdout, "%-12s %-20s %-30s %s\n", u.ID, u.Name, u.Email, u.Role)
			}
			printPageFooter(a, p.Number, p.Count)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func (a *app) promote(ctx context.Context, id string) (mutation.Result, error) {
	return a.catalog.Promote(ctx, id)
}

func (a *app) demote(ctx context.Context, id string) (mutation.Result, error) {
	return a.catalog.Demote(ctx, id)
}

func newRoleCmd(a *app, verb, short string, fn func(context.Context, string) (mutation.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:         verb + " ID...",
		Short:       short,
		Args:        cobra.MinimumNArgs(1),
		Annotations: screen("/admin/manage-users"),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if _, err := fn(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%sd user %s\n", verb, id)
			}
			return nil
		},
	}
}
