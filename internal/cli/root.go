// Package cli defines the bookshare command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/entrypoint"
	"github.com/mrlokans/bookshare/internal/logger"
)

// NewRootCommand builds the command tree. Running the binary without a
// subcommand starts the HTTP server.
func NewRootCommand(version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:          "bookshare",
		Short:        "Community book-sharing and study-material server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(version)
		},
	}

	root.AddCommand(
		newServeCommand(version),
		newReconcileCommand(),
		newVersionCommand(version, commit),
	)
	return root
}

func newServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Start the HTTP API, the notification socket and the background workers.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(version)
		},
	}
}

func serve(version string) error {
	cfg := config.NewConfig()
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()
	return entrypoint.Run(cfg, log, version)
}

func newReconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-requests",
		Short: "Decline pending requests for already approved books",
		Long: `Run one sweep over approved book requests and decline every other
pending request for the same book. The server runs this on a schedule; use
this command to run it by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			log, err := logger.New(cfg.Log.Mode)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer log.Sync()

			declined, err := entrypoint.Reconcile(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Declined %d pending request(s)\n", declined)
			return nil
		},
	}
}

func newVersionCommand(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookshare %s (commit %s)\n", version, commit)
		},
	}
}
