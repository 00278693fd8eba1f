package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/runner"
)

type runFlags struct {
	maxRounds int
	sessionID string
	message   string
	asJSON    bool
}

func newRunCmd(app *app) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run an orchestra once and print its transcript",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrchestra(cmd, app, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().IntVar(&flags.maxRounds, "max-rounds", 0, "round limit (default: definition or config)")
	cmd.Flags().StringVar(&flags.sessionID, "session-id", "", "session id (default: generated)")
	cmd.Flags().StringVar(&flags.message, "message", "", "kickoff message (default: the orchestra description)")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the session record as JSON")

	return cmd
}

func runOrchestra(cmd *cobra.Command, app *app, name string, flags runFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := app.mg.Run(ctx, name, func(o *runner.RunOptions) {
		o.SessionID = flags.sessionID
		o.Message = flags.message
		o.MaxRounds = flags.maxRounds
	})
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("no orchestra found with the name %q", name)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(core.NewOutcomeRecord(res.Orchestra.Name, res.Outcome))
	}

	s := newStyles(out)
	_, _ = fmt.Fprintf(out, "%s %s\n\n", s.title.Render("Running orchestra"), res.Orchestra.Name)
	for _, e := range res.Outcome.Entries() {
		_, _ = fmt.Fprintln(out, s.entry(e))
	}
	_, _ = fmt.Fprintf(out, "\n%s\n", s.status(res.Outcome))
	_, _ = fmt.Fprintf(out, "%s %s\n", s.label.Render("configuration:"), res.ConfigPath)
	_, err = fmt.Fprintf(out, "%s %s\n", s.label.Render("transcript:"), res.TranscriptPath)
	return err
}
