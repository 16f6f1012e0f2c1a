// Package deploy runs the full deployment pipeline: preflight checks,
// deploy trigger, readiness wait, live verification, and record
// keeping. Any failure after the trigger rolls back to the revision
// that was live when the run started.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"shipctl/internal/config"
	"shipctl/internal/domain"
	"shipctl/internal/history"
	"shipctl/internal/readiness"
	"shipctl/internal/runner"
	"shipctl/internal/verify"
)

// Phase names, used as step names in the deployment record.
const (
	phasePreflight = "preflight"
	phaseDeploy    = "deployment"
	phaseReadiness = "readiness"
	phaseVerify    = "verification"
	phaseRollback  = "rollback"
)

// localTestTimeout bounds the preflight test command.
const localTestTimeout = 10 * time.Minute

// Platform is the slice of platform.Client the orchestrator needs.
type Platform interface {
	ToolVersion(ctx context.Context) (string, error)
	Whoami(ctx context.Context) (string, error)
	Deploy(ctx context.Context) (string, error)
	Status(ctx context.Context) (string, error)
}

// Git reads the working tree position. Deploys never mutate the tree.
type Git interface {
	Current(ctx context.Context) (string, error)
	Previous(ctx context.Context) (string, error)
}

// Verifier runs the post-deploy verification suite.
type Verifier interface {
	Run(ctx context.Context, target string) *verify.Report
}

// Rollbacker reverts to a revision after a failed deploy. Implemented
// by the rollback orchestrator, forced and unverified on this path.
type Rollbacker interface {
	Rollback(ctx context.Context, revision string) error
}

// Options tunes one deploy run.
type Options struct {
	// SkipTests skips the local test command during preflight.
	SkipTests bool
}

// Outcome is everything a finished run produced.
type Outcome struct {
	Record *history.DeploymentRecord

	// Report is the verification report, nil when verification never
	// ran.
	Report *verify.Report

	// RolledBack is true when a post-trigger failure was answered with
	// an automatic rollback.
	RolledBack bool
}

// Orchestrator executes a deploy end to end. All collaborators must be
// set except Rollbacker and History, which may be nil (no automatic
// rollback, no history row). Out may be nil.
type Orchestrator struct {
	Config     *config.Config
	Runner     runner.Runner
	Platform   Platform
	Git        Git
	Poller     *readiness.Poller
	Verifier   Verifier
	Rollbacker Rollbacker
	History    history.Repository

	Out io.Writer

	// stat is swapped out by tests.
	stat func(string) (os.FileInfo, error)
}

// Run executes the pipeline. The returned Outcome carries a record
// whenever preflight completed, including on failure.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Outcome, error) {
	out := o.Out
	if out == nil {
		out = io.Discard
	}

	fmt.Fprintln(out, "Preflight checks")
	commit, previous, err := o.preflight(ctx, out, opts)
	if err != nil {
		return nil, err
	}

	record := history.NewRecord(commit, previous, o.Config.TargetURL)
	record.CompleteStep(phasePreflight, "")
	outcome := &Outcome{Record: record}

	err = o.execute(ctx, out, record, outcome)
	if err != nil && previous != "" && o.Rollbacker != nil {
		fmt.Fprintf(out, "Rolling back to %s\n", shorten(previous))
		record.StartStep(phaseRollback)
		if rbErr := o.Rollbacker.Rollback(ctx, previous); rbErr != nil {
			record.FailStep(phaseRollback, rbErr.Error())
			err = errors.Join(err, fmt.Errorf("deploy: rollback to %s failed: %w", shorten(previous), rbErr))
		} else {
			record.CompleteStep(phaseRollback, "")
			outcome.RolledBack = true
		}
	}

	record.Finish(err == nil)
	o.finalize(out, record, outcome, err)
	return outcome, err
}

// preflight validates everything locally checkable before any
// remote-mutating command. Every check here is read-only.
func (o *Orchestrator) preflight(ctx context.Context, out io.Writer, opts Options) (commit, previous string, err error) {
	if _, err := o.Platform.ToolVersion(ctx); err != nil {
		return "", "", err
	}
	identity, err := o.Platform.Whoami(ctx)
	if err != nil {
		return "", "", err
	}
	fmt.Fprintf(out, "  Authenticated as %s\n", identity)

	if o.Config.TargetURL == "" {
		return "", "", &domain.ConfigError{
			Message: "target_url is not configured; set it in shipctl.json or " + config.EnvTargetURL,
		}
	}

	for _, file := range o.Config.RequiredFiles {
		if _, err := o.statFile(file); err != nil {
			return "", "", &domain.ConfigError{
				Message: fmt.Sprintf("required file %s is missing", file),
			}
		}
	}

	if opts.SkipTests || o.Config.TestCommand == "" {
		fmt.Fprintln(out, "  Skipping local tests")
	} else {
		fmt.Fprintf(out, "  Running %q\n", o.Config.TestCommand)
		_, err := o.Runner.Run(ctx, runner.Options{
			Name:    "sh",
			Args:    []string{"-c", o.Config.TestCommand},
			Timeout: localTestTimeout,
		})
		if err != nil {
			return "", "", fmt.Errorf("deploy: local tests failed: %w", err)
		}
	}

	commit, err = o.Git.Current(ctx)
	if err != nil {
		return "", "", err
	}
	// A repository with a single commit has nothing to roll back to;
	// that disables automatic rollback but not the deploy itself.
	previous, _ = o.Git.Previous(ctx)
	return commit, previous, nil
}

// execute runs the remote-mutating phases against the record.
func (o *Orchestrator) execute(ctx context.Context, out io.Writer, record *history.DeploymentRecord, outcome *Outcome) error {
	fmt.Fprintln(out, "Triggering deployment")
	record.StartStep(phaseDeploy)
	if _, err := o.Platform.Deploy(ctx); err != nil {
		record.FailStep(phaseDeploy, err.Error())
		return err
	}
	record.CompleteStep(phaseDeploy, "")

	fmt.Fprintln(out, "Waiting for readiness")
	record.StartStep(phaseReadiness)
	if err := o.Poller.Wait(ctx, o.Platform.Status); err != nil {
		record.FailStep(phaseReadiness, err.Error())
		return err
	}
	record.CompleteStep(phaseReadiness, "")

	fmt.Fprintln(out, "Verifying deployment")
	record.StartStep(phaseVerify)
	report := o.Verifier.Run(ctx, o.Config.TargetURL)
	outcome.Report = report
	if !report.Summary.Success {
		detail := fmt.Sprintf("%d of %d probes failed", report.Summary.Failed, report.Summary.Total)
		record.FailStep(phaseVerify, detail)
		return &domain.DeployFailedError{Status: "verification failed", Detail: detail}
	}
	record.CompleteStep(phaseVerify, "")
	return nil
}

// finalize persists the record. The JSON last-deploy file is written
// only for successful deploys; the history row is written for every
// run. Persistence failures are reported but do not change the run's
// outcome.
func (o *Orchestrator) finalize(out io.Writer, record *history.DeploymentRecord, outcome *Outcome, runErr error) {
	if runErr == nil {
		if err := history.SaveLast(o.Config.StateDir, record); err != nil {
			fmt.Fprintf(out, "  Warning: %v\n", err)
		}
	}

	if o.History != nil {
		entry := history.EntryFromRecord("deploy", record, deployOutcome(runErr, outcome.RolledBack), errDetail(runErr))
		if err := o.History.Save(entry); err != nil {
			fmt.Fprintf(out, "  Warning: %v\n", err)
		}
	}
}

func (o *Orchestrator) statFile(path string) (os.FileInfo, error) {
	if o.stat != nil {
		return o.stat(path)
	}
	return os.Stat(path)
}

func deployOutcome(err error, rolledBack bool) string {
	switch {
	case err == nil:
		return history.OutcomeSuccess
	case rolledBack:
		return history.OutcomeRolledBack
	default:
		return history.OutcomeFailed
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func shorten(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
