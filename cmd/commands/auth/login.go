package auth

import (
	"fmt"
	"os"
	"strings"

	"shipctl/internal/platform"
	"shipctl/internal/services/auth"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <tool>",
		Short: "Store an API token for a platform tool",
		Long: `Store an API token for a platform tool using the local keychain.
The token is exported as the tool's environment variable (for example
RAILWAY_TOKEN) whenever shipctl invokes it.

Example:
  shipctl auth login railway`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := auth.NormalizeTool(args[0])
			if tool == "" {
				return fmt.Errorf("tool is required")
			}

			token, err := cmd.Flags().GetString("token")
			if err != nil {
				return err
			}

			token = strings.TrimSpace(token)
			if token == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter API token: ")
				bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				token = strings.TrimSpace(string(bytes))
			}

			if token == "" {
				return fmt.Errorf("token cannot be empty")
			}

			store := auth.DefaultStore()
			if err := store.SetToken(tool, token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved token for %s (exported as %s)\n",
				tool, platform.TokenEnvVar(tool))
			return nil
		},
	}

	cmd.Flags().String("token", "", "API token (optional, overrides prompt)")

	return cmd
}
