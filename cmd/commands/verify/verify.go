// Package verify wires the verification suite into the CLI.
package verify

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"shipctl/internal/config"
	"shipctl/internal/render"
	"shipctl/internal/verify"

	"github.com/spf13/cobra"
)

// NewCommand returns the verify command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [target]",
		Short: "Run the verification suite against a live service",
		Long: `Run every verification probe against the service at the given base
URL. Without an argument the target comes from shipctl.json or the
` + config.EnvTargetURL + ` environment variable.

The exit code reflects the aggregate result: zero only when every
probe passed.

Examples:
  shipctl verify
  shipctl verify https://staging.example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runVerify,
	}
	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	target := ""
	if len(args) == 1 {
		target = strings.TrimSpace(args[0])
	}
	if target == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		target = cfg.TargetURL
	}
	if target == "" {
		return fmt.Errorf("verify: no target URL; pass one or set %s", config.EnvTargetURL)
	}

	suite := verify.NewSuite(cmd.ErrOrStderr())
	report := suite.Run(ctx, target)
	render.VerificationReport(cmd.OutOrStdout(), report)

	if !report.Summary.Success {
		return fmt.Errorf("verification failed: %d of %d probes failed",
			report.Summary.Failed, report.Summary.Total)
	}
	return nil
}
