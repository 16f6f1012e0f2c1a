// Package rollback switches the working tree to an earlier revision
// and redeploys it. Nothing destructive happens before the target is
// resolved and confirmed.
package rollback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"shipctl/internal/domain"
	"shipctl/internal/gitrepo"
	"shipctl/internal/history"
	"shipctl/internal/readiness"
	"shipctl/internal/util"
	"shipctl/internal/verify"
)

// recentLimit is how many revisions the interactive picker offers.
const recentLimit = 10

// TargetKind says how the rollback target was chosen.
type TargetKind int

const (
	// KindExplicit targets a revision named on the command line.
	KindExplicit TargetKind = iota

	// KindPrevious targets the revision one behind HEAD.
	KindPrevious

	// KindInteractive asks the user to pick from recent revisions.
	KindInteractive
)

// Target is the requested rollback destination.
type Target struct {
	Kind TargetKind

	// Revision is the revision spelling for KindExplicit.
	Revision string

	// Description is extra context shown at confirmation.
	Description string
}

// Git is the slice of gitrepo.Repo the orchestrator needs.
type Git interface {
	Current(ctx context.Context) (string, error)
	Previous(ctx context.Context) (string, error)
	Resolve(ctx context.Context, rev string) (string, error)
	Recent(ctx context.Context, n int) ([]gitrepo.Revision, error)
	Checkout(ctx context.Context, rev string) error
	StashPush(ctx context.Context) (string, error)
	StashPop(ctx context.Context) (string, error)
}

// Platform is the slice of platform.Client the orchestrator needs.
type Platform interface {
	Deploy(ctx context.Context) (string, error)
	Status(ctx context.Context) (string, error)
}

// Prompter supplies the interactive target selection and confirmation.
type Prompter interface {
	PickRevision(revs []gitrepo.Revision) (string, error)
	ConfirmRollback(revision, description string) (bool, error)
}

// Verifier runs the post-deploy verification suite.
type Verifier interface {
	Run(ctx context.Context, target string) *verify.Report
}

// Options tunes one rollback run.
type Options struct {
	// Force skips the confirmation prompt.
	Force bool

	// NoVerify skips post-deploy verification.
	NoVerify bool
}

// Orchestrator executes a rollback end to end. All collaborators must
// be set; Out may be nil.
type Orchestrator struct {
	Git      Git
	Platform Platform
	Poller   *readiness.Poller
	Prompt   Prompter
	Verifier Verifier

	// TargetURL is the verification target, recorded on the run.
	TargetURL string

	// Out receives phase progress lines.
	Out io.Writer
}

// Run resolves the target, confirms, switches the tree, and redeploys.
// The returned record is non-nil whenever execution got past
// confirmation, including on failure.
func (o *Orchestrator) Run(ctx context.Context, target Target, opts Options) (*history.DeploymentRecord, error) {
	out := o.Out
	if out == nil {
		out = io.Discard
	}

	revision, err := o.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	prior, err := o.Git.Current(ctx)
	if err != nil {
		return nil, err
	}

	if !opts.Force {
		ok, err := o.Prompt.ConfirmRollback(shorten(revision), target.Description)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrUserCancelled
		}
	}

	record := history.NewRecord(revision, prior, o.TargetURL)

	record.StartStep("stash")
	stashed := false
	if stashOut, err := o.Git.StashPush(ctx); err != nil {
		// A clean tree has nothing to stash; carry on.
		record.CompleteStep("stash", "nothing stashed")
	} else {
		stashed = strings.Contains(stashOut, "shipctl rollback")
		record.CompleteStep("stash", stashOut)
	}

	fmt.Fprintf(out, "Checking out %s\n", shorten(revision))
	record.StartStep("checkout")
	if err := o.Git.Checkout(ctx, revision); err != nil {
		record.FailStep("checkout", err.Error())
		runErr := o.restore(ctx, out, record, prior, stashed, err)
		record.Finish(false)
		return record, runErr
	}

	head, err := o.Git.Current(ctx)
	if err == nil && head != revision {
		err = fmt.Errorf("rollback: checkout left HEAD at %s, wanted %s", shorten(head), shorten(revision))
	}
	if err != nil {
		record.FailStep("checkout", err.Error())
		runErr := o.restore(ctx, out, record, prior, stashed, err)
		record.Finish(false)
		return record, runErr
	}
	record.CompleteStep("checkout", "")

	fmt.Fprintln(out, "Redeploying")
	record.StartStep("deployment")
	if _, err := o.Platform.Deploy(ctx); err != nil {
		record.FailStep("deployment", err.Error())
		runErr := o.restore(ctx, out, record, prior, stashed, err)
		record.Finish(false)
		return record, runErr
	}
	record.CompleteStep("deployment", "")

	record.StartStep("readiness")
	if err := o.Poller.Wait(ctx, o.Platform.Status); err != nil {
		record.FailStep("readiness", err.Error())
		runErr := o.restore(ctx, out, record, prior, stashed, err)
		record.Finish(false)
		return record, runErr
	}
	record.CompleteStep("readiness", "")

	if !opts.NoVerify {
		record.StartStep("verification")
		report := o.Verifier.Run(ctx, o.TargetURL)
		if !report.Summary.Success {
			detail := fmt.Sprintf("%d of %d probes failed", report.Summary.Failed, report.Summary.Total)
			record.FailStep("verification", detail)
			record.Finish(false)
			// The rolled-back revision is live; restoring the tree
			// here would only make the working copy lie about what
			// is deployed.
			return record, &domain.DeployFailedError{Status: "verification failed", Detail: detail}
		}
		record.CompleteStep("verification", "")
	}

	record.Finish(true)
	return record, nil
}

// resolveTarget expands the requested target to a full commit hash.
func (o *Orchestrator) resolveTarget(ctx context.Context, target Target) (string, error) {
	switch target.Kind {
	case KindPrevious:
		return o.Git.Previous(ctx)

	case KindExplicit:
		if err := util.ValidateRevision(target.Revision); err != nil {
			return "", &domain.ConfigError{Message: err.Error()}
		}
		return o.Git.Resolve(ctx, target.Revision)

	case KindInteractive:
		revs, err := o.Git.Recent(ctx, recentLimit)
		if err != nil {
			return "", err
		}
		if len(revs) == 0 {
			return "", &domain.ConfigError{Message: "no revisions to roll back to"}
		}
		picked, err := o.Prompt.PickRevision(revs)
		if err != nil {
			return "", err
		}
		return o.Git.Resolve(ctx, picked)

	default:
		return "", fmt.Errorf("rollback: unknown target kind %d", target.Kind)
	}
}

// restore tries to put the working tree back where it was. A restore
// failure is reported alongside the original error, never instead of
// it.
func (o *Orchestrator) restore(ctx context.Context, out io.Writer, record *history.DeploymentRecord, prior string, stashed bool, original error) error {
	fmt.Fprintf(out, "Restoring working tree to %s\n", shorten(prior))
	record.StartStep("restore")

	if err := o.Git.Checkout(ctx, prior); err != nil {
		record.FailStep("restore", err.Error())
		return errors.Join(original, fmt.Errorf("rollback: failed to restore %s: %w", shorten(prior), err))
	}
	if stashed {
		if _, err := o.Git.StashPop(ctx); err != nil {
			record.FailStep("restore", err.Error())
			return errors.Join(original, fmt.Errorf("rollback: failed to restore stashed changes: %w", err))
		}
	}
	record.CompleteStep("restore", "")
	return original
}

func shorten(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
