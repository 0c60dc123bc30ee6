// Package cli contains the repofinder command line tool, built with Cobra.
//
// It drives the same home page component and store as the web server, only
// headless: the page is mounted, its auto-submit loads the repositories and
// the resulting view is printed instead of rendered.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the repofinder command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "repofinder",
		Short: "Look up the GitHub repositories of one or more users.",
		Long: `repofinder lists the public repositories of GitHub users, most recently
updated first. Set GITHUB_TOKEN to raise GitHub's rate limit; GITHUB_API_URL
points it at GitHub Enterprise.`,
		SilenceUsage: true,
	}

	// Available to all commands.
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")

	root.AddCommand(newLookupCmd())
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger discards everything unless --verbose is set.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}
