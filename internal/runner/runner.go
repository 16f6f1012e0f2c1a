// Package runner executes external commands with a hard timeout.
//
// This is the single boundary through which shipctl talks to the
// platform CLI and to git. It is stateless and never retries; callers
// that want retry semantics layer them on top (see internal/retry).
package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"shipctl/internal/domain"
)

// DefaultTimeout bounds a command when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Options describes a single command invocation.
type Options struct {
	// Name is the binary to execute.
	Name string

	// Args are the command arguments.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is appended to the current process environment.
	Env []string

	// Timeout kills the command if it runs longer. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// CommandLine renders the invocation for error messages and logs.
func (o Options) CommandLine() string {
	return strings.TrimSpace(o.Name + " " + strings.Join(o.Args, " "))
}

// Runner executes one external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, opts Options) (string, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

// New returns the production runner.
func New() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns trimmed stdout. On non-zero
// exit, timeout kill, or spawn failure it returns a
// *domain.ExecutionError carrying the command line and captured stderr.
func (r *ExecRunner) Run(ctx context.Context, opts Options) (string, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, opts.Name, opts.Args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return strings.TrimSpace(stdout.String()), nil
	}

	execErr := &domain.ExecutionError{
		Command: opts.CommandLine(),
		Stderr:  strings.TrimSpace(stderr.String()),
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		execErr.Message = "timed out after " + timeout.String()
	case isSpawnFailure(err):
		execErr.Message = "failed to start: " + err.Error()
	default:
		execErr.Message = err.Error()
	}

	return "", execErr
}

// isSpawnFailure reports whether the command never ran at all, as
// opposed to running and exiting non-zero.
func isSpawnFailure(err error) bool {
	var exitErr *exec.ExitError
	return !errors.As(err, &exitErr)
}
