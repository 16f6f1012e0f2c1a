package auth

import (
	"errors"
	"fmt"

	"shipctl/internal/services/auth"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout <tool>",
		Short: "Remove the stored API token for a platform tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := auth.NormalizeTool(args[0])

			store := auth.DefaultStore()
			if err := store.DeleteToken(tool); err != nil {
				if errors.Is(err, auth.ErrTokenNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "No token stored for %s\n", tool)
					return nil
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed token for %s\n", tool)
			return nil
		},
	}
	return cmd
}
