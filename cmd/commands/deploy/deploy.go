// Package deploy wires the deploy pipeline into the CLI.
package deploy

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"shipctl/internal/config"
	"shipctl/internal/deploy"
	"shipctl/internal/gitrepo"
	"shipctl/internal/history"
	"shipctl/internal/platform"
	"shipctl/internal/readiness"
	"shipctl/internal/render"
	"shipctl/internal/rollback"
	"shipctl/internal/runner"
	"shipctl/internal/services/auth"
	"shipctl/internal/verify"

	"github.com/spf13/cobra"
)

const (
	// defaultMaxWait bounds the readiness wait unless --timeout is given.
	defaultMaxWait = 5 * time.Minute

	// pollInterval is the fixed delay between status queries.
	pollInterval = 10 * time.Second
)

// NewCommand returns the deploy command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the working tree and verify the result",
		Long: `Deploy the current working tree to the hosting platform, wait for
the deployment to become ready, and verify it against the live
service. A failure after the deploy is triggered rolls back to the
revision that was deployed before.

Examples:
  shipctl deploy
  shipctl deploy --skip-tests --timeout 10m
  shipctl deploy --verify-only
  shipctl deploy --rollback`,
		RunE: runDeploy,
	}

	cmd.Flags().Bool("verify-only", false, "Run verification against the live service without deploying")
	cmd.Flags().Bool("rollback", false, "Roll back to the previous revision instead of deploying")
	cmd.Flags().Bool("skip-tests", false, "Skip the local test command during preflight")
	cmd.Flags().Duration("timeout", defaultMaxWait, "Maximum time to wait for deployment readiness")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if verifyOnly, _ := cmd.Flags().GetBool("verify-only"); verifyOnly {
		return runVerifyOnly(ctx, cmd, cfg)
	}

	run := runner.New()
	store := auth.DefaultStore()
	client := platform.NewClient(run, cfg.Tool, "", store)
	git := gitrepo.New(run, "")

	maxWait, _ := cmd.Flags().GetDuration("timeout")
	poller := readiness.New(platform.ClassifyDeployStatus, maxWait, pollInterval, cmd.ErrOrStderr())
	suite := verify.NewSuite(cmd.ErrOrStderr())

	var repo history.Repository
	if r, err := history.Open(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: deploy history unavailable: %v\n", err)
	} else {
		repo = r
		defer r.Close()
	}

	reverter := &rollback.Orchestrator{
		Git:       git,
		Platform:  client,
		Poller:    poller,
		Verifier:  suite,
		TargetURL: cfg.TargetURL,
		Out:       cmd.ErrOrStderr(),
	}

	if doRollback, _ := cmd.Flags().GetBool("rollback"); doRollback {
		return runImmediateRollback(ctx, cmd, cfg, reverter, repo)
	}

	orchestrator := &deploy.Orchestrator{
		Config:     cfg,
		Runner:     run,
		Platform:   client,
		Git:        git,
		Poller:     poller,
		Verifier:   suite,
		Rollbacker: &forcedRollback{reverter},
		History:    repo,
		Out:        cmd.ErrOrStderr(),
	}

	outcome, err := orchestrator.Run(ctx, deploy.Options{
		SkipTests: flagBool(cmd, "skip-tests"),
	})
	if outcome != nil {
		if outcome.Report != nil {
			render.VerificationReport(cmd.OutOrStdout(), outcome.Report)
		}
		render.DeploySummary(cmd.OutOrStdout(), "deploy", outcome.Record)
	}
	return err
}

// runVerifyOnly runs the verification suite without deploying anything.
func runVerifyOnly(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	if cfg.TargetURL == "" {
		return fmt.Errorf("deploy: no target URL configured; set it in shipctl.json or %s", config.EnvTargetURL)
	}

	suite := verify.NewSuite(cmd.ErrOrStderr())
	report := suite.Run(ctx, cfg.TargetURL)
	render.VerificationReport(cmd.OutOrStdout(), report)

	if !report.Summary.Success {
		return fmt.Errorf("verification failed: %d of %d probes failed",
			report.Summary.Failed, report.Summary.Total)
	}
	return nil
}

// runImmediateRollback handles deploy --rollback: an unconditional
// forced rollback to the previous revision.
func runImmediateRollback(ctx context.Context, cmd *cobra.Command, cfg *config.Config, reverter *rollback.Orchestrator, repo history.Repository) error {
	record, err := reverter.Run(ctx, rollback.Target{Kind: rollback.KindPrevious}, rollback.Options{Force: true})
	if record != nil {
		render.DeploySummary(cmd.OutOrStdout(), "rollback", record)
		saveHistory(cmd, repo, record, err)
	}
	return err
}

// forcedRollback adapts the rollback orchestrator to the deploy
// pipeline's automatic-rollback hook: forced, unverified.
type forcedRollback struct {
	orchestrator *rollback.Orchestrator
}

func (f *forcedRollback) Rollback(ctx context.Context, revision string) error {
	_, err := f.orchestrator.Run(ctx,
		rollback.Target{Kind: rollback.KindExplicit, Revision: revision},
		rollback.Options{Force: true, NoVerify: true},
	)
	return err
}

func saveHistory(cmd *cobra.Command, repo history.Repository, record *history.DeploymentRecord, runErr error) {
	if repo == nil {
		return
	}
	outcome := history.OutcomeSuccess
	detail := ""
	if runErr != nil {
		outcome = history.OutcomeFailed
		detail = runErr.Error()
	}
	entry := history.EntryFromRecord("rollback", record, outcome, detail)
	if err := repo.Save(entry); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to record rollback: %v\n", err)
	}
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
