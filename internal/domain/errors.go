// Package domain holds the error taxonomy shared across the deploy,
// rollback, and verification layers.
//
// The types map one-to-one onto how a failure is handled:
//
//   - ConfigError aborts before anything remote is touched.
//   - ExecutionError surfaces as-is, unless the readiness poller wraps
//     it (a flaky status query is inconclusive, not fatal).
//   - DeployFailedError and TimeoutError escalate to an automatic
//     rollback in the deploy path.
//   - ErrUserCancelled is a clean abort, not a system error.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUserCancelled indicates the user declined an interactive
// confirmation. Commands exit quietly without treating it as a failure
// of the system itself.
var ErrUserCancelled = errors.New("cancelled by user")

// ConfigError indicates missing or invalid local configuration.
// It is terminal and never retried; no remote command has run yet.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// ExecutionError indicates an external command failed: non-zero exit,
// timeout kill, or spawn failure.
type ExecutionError struct {
	// Command is the command line that was executed.
	Command string

	// Message is a human-readable explanation of the failure.
	Message string

	// Stderr is the captured standard error output, if any.
	Stderr string
}

func (e *ExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command %q failed: %s: %s", e.Command, e.Message, e.Stderr)
	}
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Message)
}

// DeployFailedError indicates the platform reported the deployment
// reached a terminal failure state.
type DeployFailedError struct {
	// Status is the platform's reported state (e.g. "FAILED").
	Status string

	// Detail carries any extra context from the status output.
	Detail string
}

func (e *DeployFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("deployment failed with status %s: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("deployment failed with status %s", e.Status)
}

// TimeoutError indicates a bounded wait elapsed without the watched
// operation reaching a terminal state. The deploy path treats it the
// same as DeployFailedError.
type TimeoutError struct {
	// Op names the operation that was being waited on.
	Op string

	// Waited is how long the wait lasted before giving up.
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s after %s", e.Op, e.Waited)
}
