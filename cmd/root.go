// Package cmd implements the metagen command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "metagen",
		Short: "Build and run orchestras of conversing AI agents",
		Long: "metagen stores named orchestras (multi-agent task definitions), builds new ones " +
			"from a description and runs them as turn-based group conversations.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return app.close(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.configFile, "config", "", "config file (default: metagen.{yaml,toml,json} in . or $HOME/.metagen)")
	flags.String("db", "", "SQLite database path")
	flags.String("artifact-dir", "", "directory for exported configurations and transcripts")
	flags.String("provider", "", "default model provider (openai, anthropic, mock, scripted, echo, human)")
	flags.String("model", "", "default model name")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("trace", false, "export OpenTelemetry spans to stderr")

	app.bind(flags, map[string]string{
		"db_path":         "db",
		"artifact_dir":    "artifact-dir",
		"provider":        "provider",
		"model":           "model",
		"log.level":       "log-level",
		"tracing.enabled": "trace",
	})

	rootCmd.AddCommand(
		newListCmd(app),
		newDescribeCmd(app),
		newRunCmd(app),
		newBuildCmd(app),
		newHistoryCmd(app),
		newChatCmd(app),
	)

	return rootCmd
}
