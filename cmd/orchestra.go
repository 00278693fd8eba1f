package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andishehs/MetaGen/core"
)

func newListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored orchestras",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listOrchestras(cmd, app)
		},
	}
}

func listOrchestras(cmd *cobra.Command, app *app) error {
	names, err := app.mg.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		_, err = fmt.Fprintln(out, "No orchestras are currently available.")
		return err
	}

	s := newStyles(out)
	_, _ = fmt.Fprintln(out, s.title.Render("Available Orchestras:"))
	for _, name := range names {
		_, _ = fmt.Fprintf(out, "- %s\n", name)
	}
	return nil
}

func newDescribeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show an orchestra's description and definition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return describeOrchestra(cmd, app, strings.Join(args, " "))
		},
	}
}

func describeOrchestra(cmd *cobra.Command, app *app, name string) error {
	o, err := app.mg.Describe(cmd.Context(), name)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("no orchestra found with the name %q", name)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), newStyles(cmd.OutOrStdout()).orchestra(o))
	return err
}

func newBuildCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build <name> <description...>",
		Short: "Design a new orchestra from a description and store it",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildOrchestra(cmd, app, args[0], strings.Join(args[1:], " "))
		},
	}
}

func buildOrchestra(cmd *cobra.Command, app *app, name, description string) error {
	o, err := app.mg.Build(cmd.Context(), name, description)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Orchestra '%s' built successfully and saved to the database.\n", o.Name)
	return err
}

func newHistoryCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <name>",
		Short: "List past sessions of an orchestra",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := app.mg.Outcomes(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}

			s := newStyles(out)
			if len(recs) == 0 {
				_, err = fmt.Fprintln(out, s.faint.Render("no sessions"))
				return err
			}
			for _, r := range recs {
				_, _ = fmt.Fprintf(out, "%s  %s  %-26s rounds=%d %s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.SessionID, r.Status, r.Rounds, r.FailureReason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session records as JSON")

	return cmd
}
