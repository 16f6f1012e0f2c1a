package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"shipctl/internal/config"
	"shipctl/internal/platform"
	"shipctl/internal/runner"
	"shipctl/internal/services/auth"

	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the stored token is valid",
		Long: `Check whether a token is stored for the configured platform tool and
whether the tool accepts it, by asking the tool for the authenticated
identity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tool := auth.NormalizeTool(cfg.Tool)

			store := auth.DefaultStore()
			if _, err := store.GetToken(tool); err != nil {
				if errors.Is(err, auth.ErrTokenNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "No token stored for %s. Run: shipctl auth login %s\n", tool, tool)
					return nil
				}
				return err
			}

			client := platform.NewClient(runner.New(), tool, "", store)

			var identity string
			var whoamiErr error
			if term.IsTerminal(int(os.Stdout.Fd())) {
				spinErr := spinner.New().
					Title(fmt.Sprintf("Checking %s identity...", tool)).
					Accessible(os.Getenv("ACCESSIBLE") != "").
					Output(cmd.ErrOrStderr()).
					ActionWithErr(func(spinCtx context.Context) error {
						identity, whoamiErr = client.Whoami(ctx)
						return nil
					}).
					Run()
				if spinErr != nil {
					return spinErr
				}
			} else {
				identity, whoamiErr = client.Whoami(ctx)
			}

			if whoamiErr != nil {
				return whoamiErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authenticated with %s as %s\n", tool, identity)
			return nil
		},
	}
	return cmd
}
