// Package history wires the local deploy history into the CLI.
package history

import (
	"fmt"
	"time"

	"shipctl/internal/history"
	"shipctl/internal/render"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past deploys and rollbacks",
		Long: `Inspect the local record of past deploys and rollbacks.

Every run is recorded in a local database, whatever its outcome.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent deploys and rollbacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			repo, err := history.Open()
			if err != nil {
				return err
			}
			defer repo.Close()

			entries, err := repo.List(limit)
			if err != nil {
				return err
			}

			render.HistoryTable(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of entries to show")

	return cmd
}

func PruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history entries older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			olderThan, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}

			repo, err := history.Open()
			if err != nil {
				return err
			}
			defer repo.Close()

			removed, err := repo.Prune(olderThan)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
			return nil
		},
	}

	cmd.Flags().Duration("older-than", 90*24*time.Hour, "Delete entries older than this")

	return cmd
}
