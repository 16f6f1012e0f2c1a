package cmd

import (
	"errors"
	"fmt"
	"os"

	authcmd "shipctl/cmd/commands/auth"
	deploycmd "shipctl/cmd/commands/deploy"
	historycmd "shipctl/cmd/commands/history"
	rollbackcmd "shipctl/cmd/commands/rollback"
	verifycmd "shipctl/cmd/commands/verify"
	"shipctl/internal/domain"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shipctl",
		Short: "Deploy, verify, and roll back a service on its hosting platform",
		Long: `shipctl drives deployments through the hosting platform's own CLI
tool, verifies each deployment against the live service, and rolls
back to a previous revision when something goes wrong.

Quick start:
  shipctl auth login railway       # Store the platform API token
  shipctl deploy                   # Deploy HEAD and verify it
  shipctl verify                   # Re-run verification on its own
  shipctl rollback --previous      # Redeploy the previous revision`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(authcmd.NewCommand())
	cmd.AddCommand(deploycmd.NewCommand())
	cmd.AddCommand(historycmd.NewCommand())
	cmd.AddCommand(rollbackcmd.NewCommand())
	cmd.AddCommand(verifycmd.NewCommand())

	return cmd
}

// Execute runs the root command. Called by main.main().
func Execute() {
	root := rootCmd()
	if err := root.Execute(); err != nil {
		if errors.Is(err, domain.ErrUserCancelled) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
