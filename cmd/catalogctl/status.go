package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/querysync/catalog"
	"github.com/jonwraymond/querysync/health"
)

var errUnhealthy = errors.New("unhealthy")

func newHealthCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the cache and the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results := a.health.CheckAll(cmd.Context())
			overall := health.Overall(results)
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(health.NewReport(results, time.Now())); err != nil {
					return err
				}
			} else {
				for _, name := range a.health.Names() {
					r := results[name]
					fmt.Fprintf(a.stdout, "%-10s %-10s %s\n", name, r.Status, r.Message)
				}
				fmt.Fprintf(a.stdout, "overall: %s\n", overall)
			}
			if overall == health.StatusUnhealthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON report")
	return cmd
}

// newScreensCmd shows where the current caller would land on each screen.
func newScreensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "Show which screens the current token may open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.identity(cmd.Context())
			if err != nil {
				fmt.Fprintf(a.stderr, "token rejected: %v\n", err)
			}
			if !a.gated {
				fmt.Fprintln(a.stderr, "no token key configured; showing the signed-out view")
			}
			for _, s := range catalog.Screens() {
				d, err := catalog.Gate(id, s.Path)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%-32s %s\n", s.Path, d)
			}
			return nil
		},
	}
}
