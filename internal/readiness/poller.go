// Package readiness waits for a triggered deployment to reach a
// terminal state by polling the platform's status query at a fixed
// interval.
//
// The platform CLI's output format is not a stable contract, so the
// poller never inspects it directly: a Classifier turns each raw
// result into one of three signals, and anything the classifier cannot
// make sense of keeps the loop polling rather than failing the deploy.
// There is no backoff — deployment completion is not adversarial.
package readiness

import (
	"context"
	"fmt"
	"io"
	"time"

	"shipctl/internal/domain"
)

// State is the poller's position in its lifecycle.
type State int

const (
	StatePolling State = iota
	StateReady
	StateFailed
	StateTimedOut
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timedOut"
	default:
		return "unknown"
	}
}

// Signal classifies one status probe result.
type Signal int

const (
	// SignalInconclusive means the result was ambiguous or unparsable.
	// The poller keeps going; it does not consume any separate budget.
	SignalInconclusive Signal = iota

	// SignalSuccess means the platform reports the deployment live.
	SignalSuccess

	// SignalFailure means the platform reports a terminal failure.
	SignalFailure
)

// StatusFunc performs one status query and returns its raw output.
type StatusFunc func(ctx context.Context) (string, error)

// Classifier turns a raw status result into a signal plus a short
// human-readable status text. It receives the query error (if any) so
// that a transiently failing query can be treated as inconclusive.
type Classifier func(output string, err error) (Signal, string)

// Poller drives the polling loop. The zero value is not usable; use New.
type Poller struct {
	// MaxWait bounds the total time spent polling.
	MaxWait time.Duration

	// Interval is the fixed delay between status queries.
	Interval time.Duration

	// Classify maps each status result to a signal.
	Classify Classifier

	// Out receives progress lines. Never nil after New.
	Out io.Writer

	// sleep is swapped out by tests to make the loop instantaneous.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a poller with the given bounds writing progress to out.
func New(classify Classifier, maxWait, interval time.Duration, out io.Writer) *Poller {
	if out == nil {
		out = io.Discard
	}
	return &Poller{
		MaxWait:  maxWait,
		Interval: interval,
		Classify: classify,
		Out:      out,
		sleep:    sleepCtx,
	}
}

// Wait polls status until the classifier reports success or failure, or
// the wait budget runs out. It tracks elapsed time as a counter of
// completed intervals, so it returns within MaxWait plus at most one
// interval:
//
//   - success signal → nil (ready)
//   - failure signal → *domain.DeployFailedError
//   - budget exceeded → *domain.TimeoutError
func (p *Poller) Wait(ctx context.Context, status StatusFunc) error {
	if p.sleep == nil {
		p.sleep = sleepCtx
	}

	var elapsed time.Duration
	for {
		if elapsed+p.Interval > p.MaxWait {
			fmt.Fprintf(p.Out, "  Readiness: %s after %s\n", StateTimedOut, elapsed)
			return &domain.TimeoutError{Op: "deployment readiness", Waited: elapsed}
		}

		if err := p.sleep(ctx, p.Interval); err != nil {
			return err
		}
		elapsed += p.Interval

		out, err := status(ctx)
		signal, statusText := p.Classify(out, err)

		switch signal {
		case SignalSuccess:
			fmt.Fprintf(p.Out, "  Readiness: %s (%s) after %s\n", StateReady, statusText, elapsed)
			return nil
		case SignalFailure:
			fmt.Fprintf(p.Out, "  Readiness: %s (%s) after %s\n", StateFailed, statusText, elapsed)
			return &domain.DeployFailedError{Status: statusText}
		default:
			fmt.Fprintf(p.Out, "  Still waiting (%s elapsed): %s\n", elapsed, statusText)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
