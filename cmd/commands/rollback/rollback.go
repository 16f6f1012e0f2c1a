// Package rollback wires the rollback orchestrator into the CLI.
package rollback

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"shipctl/internal/config"
	"shipctl/internal/gitrepo"
	"shipctl/internal/history"
	"shipctl/internal/platform"
	"shipctl/internal/prompt"
	"shipctl/internal/readiness"
	"shipctl/internal/render"
	"shipctl/internal/rollback"
	"shipctl/internal/runner"
	"shipctl/internal/services/auth"
	"shipctl/internal/verify"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxWait = 5 * time.Minute
	pollInterval   = 10 * time.Second
)

// NewCommand returns the rollback command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Redeploy an earlier revision",
		Long: `Switch the working tree to an earlier revision and redeploy it.
Without --commit or --previous, recent revisions are offered
interactively.

Uncommitted changes are stashed before the checkout. If the rollback
fails, the working tree is restored to where it was.

Examples:
  shipctl rollback                    # pick a revision interactively
  shipctl rollback --previous         # one revision back
  shipctl rollback --commit 3f9c2a1   # a specific revision
  shipctl rollback --previous --force --no-verify`,
		RunE: runRollback,
	}

	cmd.Flags().String("commit", "", "Revision to roll back to")
	cmd.Flags().Bool("previous", false, "Roll back to the revision before the current one")
	cmd.Flags().Bool("force", false, "Skip the confirmation prompt")
	cmd.Flags().Bool("no-verify", false, "Skip post-deploy verification")
	cmd.MarkFlagsMutuallyExclusive("commit", "previous")

	return cmd
}

func runRollback(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	commit, _ := cmd.Flags().GetString("commit")
	previous, _ := cmd.Flags().GetBool("previous")
	force, _ := cmd.Flags().GetBool("force")
	noVerify, _ := cmd.Flags().GetBool("no-verify")

	run := runner.New()
	git := gitrepo.New(run, "")
	client := platform.NewClient(run, cfg.Tool, "", auth.DefaultStore())

	target := rollback.Target{Kind: rollback.KindInteractive}
	switch {
	case commit != "":
		target = rollback.Target{Kind: rollback.KindExplicit, Revision: commit}
	case previous:
		target = rollback.Target{Kind: rollback.KindPrevious}
	default:
		if !prompt.IsInteractive() {
			return fmt.Errorf("rollback: no terminal for interactive selection; pass --commit or --previous")
		}
		target.Description = deployContext(ctx, cfg, git)
	}

	orchestrator := &rollback.Orchestrator{
		Git:       git,
		Platform:  client,
		Poller:    readiness.New(platform.ClassifyDeployStatus, defaultMaxWait, pollInterval, cmd.ErrOrStderr()),
		Prompt:    prompt.NewRollbackWizard(),
		Verifier:  verify.NewSuite(cmd.ErrOrStderr()),
		TargetURL: cfg.TargetURL,
		Out:       cmd.ErrOrStderr(),
	}

	record, err := orchestrator.Run(ctx, target, rollback.Options{Force: force, NoVerify: noVerify})
	if record != nil {
		render.DeploySummary(cmd.OutOrStdout(), "rollback", record)
		saveHistory(cmd, record, err)
	}
	return err
}

// deployContext gathers what is currently deployed for the
// confirmation prompt. Both lookups are read-only and best-effort, so
// they run concurrently and failures leave the context empty.
func deployContext(ctx context.Context, cfg *config.Config, git *gitrepo.Repo) string {
	var (
		head string
		last *history.DeploymentRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := git.Current(gctx)
		if err == nil {
			head = h
		}
		return nil
	})
	g.Go(func() error {
		if record, err := history.LoadLast(cfg.StateDir); err == nil {
			last = record
		}
		return nil
	})
	_ = g.Wait()

	switch {
	case last != nil && last.Commit != "":
		return fmt.Sprintf("last deployed %s at %s",
			shortRev(last.Commit), last.EndedAt.Local().Format("2006-01-02 15:04"))
	case head != "":
		return fmt.Sprintf("currently on %s", shortRev(head))
	default:
		return ""
	}
}

func saveHistory(cmd *cobra.Command, record *history.DeploymentRecord, runErr error) {
	repo, err := history.Open()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: deploy history unavailable: %v\n", err)
		return
	}
	defer repo.Close()

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

func shortRev(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
