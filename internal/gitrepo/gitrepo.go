// Package gitrepo reads and switches the project's git working tree.
// The working tree is only ever mutated on the rollback path; every
// deploy-path operation here is read-only.
package gitrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shipctl/internal/runner"
)

const gitTimeout = 30 * time.Second

// Revision is one entry from the recent-revision list.
type Revision struct {
	// ID is the full commit hash.
	ID string

	// Subject is the first line of the commit message.
	Subject string
}

// ShortID returns an abbreviated hash for display.
func (r Revision) ShortID() string {
	if len(r.ID) > 8 {
		return r.ID[:8]
	}
	return r.ID
}

// Repo runs git against one working tree.
type Repo struct {
	runner runner.Runner
	dir    string
}

// New returns a Repo for the working tree at dir. Empty dir means the
// current directory.
func New(r runner.Runner, dir string) *Repo {
	return &Repo{runner: r, dir: dir}
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	return r.runner.Run(ctx, runner.Options{
		Name:    "git",
		Args:    args,
		Dir:     r.dir,
		Timeout: gitTimeout,
	})
}

// Current returns the full hash of HEAD.
func (r *Repo) Current(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("gitrepo: failed to read current revision: %w", err)
	}
	return out, nil
}

// Previous returns the full hash of the revision one behind HEAD.
func (r *Repo) Previous(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD~1")
	if err != nil {
		return "", fmt.Errorf("gitrepo: failed to read previous revision: %w", err)
	}
	return out, nil
}

// Resolve expands any revision spelling (short hash, branch, HEAD~n)
// to a full commit hash, failing if it names nothing.
func (r *Repo) Resolve(ctx context.Context, rev string) (string, error) {
	out, err := r.git(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("gitrepo: revision %q not found: %w", rev, err)
	}
	return out, nil
}

// Recent returns the n most recent revisions, newest first.
func (r *Repo) Recent(ctx context.Context, n int) ([]Revision, error) {
	out, err := r.git(ctx, "log", fmt.Sprintf("-%d", n), "--pretty=format:%H\t%s")
	if err != nil {
		return nil, fmt.Errorf("gitrepo: failed to list recent revisions: %w", err)
	}

	var revs []Revision
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, subject, _ := strings.Cut(line, "\t")
		revs = append(revs, Revision{ID: id, Subject: subject})
	}
	return revs, nil
}

// Checkout switches the working tree to rev. Callers verify the result
// with Current — git can silently no-op on some spellings, and a
// rollback must fail loudly rather than redeploy the wrong tree.
func (r *Repo) Checkout(ctx context.Context, rev string) error {
	if _, err := r.git(ctx, "checkout", rev); err != nil {
		return fmt.Errorf("gitrepo: checkout of %q failed: %w", rev, err)
	}
	return nil
}

// StashPush saves uncommitted local changes. Callers treat failure as
// non-fatal: a clean tree has nothing to stash.
func (r *Repo) StashPush(ctx context.Context) (string, error) {
	return r.git(ctx, "stash", "push", "--include-untracked", "-m", "shipctl rollback")
}

// StashPop restores the most recently stashed changes.
func (r *Repo) StashPop(ctx context.Context) (string, error) {
	return r.git(ctx, "stash", "pop")
}
