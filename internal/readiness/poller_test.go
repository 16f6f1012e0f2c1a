package readiness

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shipctl/internal/domain"
)

// fakeSleep records requested sleep durations without actually sleeping.
type fakeSleep struct {
	slept []time.Duration
}

func (f *fakeSleep) sleep(_ context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	return nil
}

// scriptedStatus returns canned outputs in order, repeating the last.
func scriptedStatus(outputs ...string) StatusFunc {
	i := 0
	return func(context.Context) (string, error) {
		out := outputs[len(outputs)-1]
		if i < len(outputs) {
			out = outputs[i]
			i++
		}
		return out, nil
	}
}

// plainClassifier treats "up" as success, "down" as failure, anything
// else as inconclusive.
func plainClassifier(output string, err error) (Signal, string) {
	if err != nil {
		return SignalInconclusive, err.Error()
	}
	switch output {
	case "up":
		return SignalSuccess, output
	case "down":
		return SignalFailure, output
	default:
		return SignalInconclusive, output
	}
}

func newTestPoller(maxWait, interval time.Duration, out *bytes.Buffer) (*Poller, *fakeSleep) {
	fs := &fakeSleep{}
	p := New(plainClassifier, maxWait, interval, out)
	p.sleep = fs.sleep
	return p, fs
}

func TestWaitInconclusiveTwiceThenSuccess(t *testing.T) {
	var out bytes.Buffer
	p, fs := newTestPoller(time.Minute, 5*time.Second, &out)

	err := p.Wait(context.Background(), scriptedStatus("building", "deploying", "up"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Exactly 3 intervals elapsed: the inconclusive polls consume no
	// separate budget, the loop simply continues.
	if len(fs.slept) != 3 {
		t.Fatalf("slept %d intervals, want 3", len(fs.slept))
	}
	for _, d := range fs.slept {
		if d != 5*time.Second {
			t.Errorf("interval = %s, want fixed 5s", d)
		}
	}
	if !strings.Contains(out.String(), "Still waiting") {
		t.Errorf("expected progress lines for inconclusive polls, got:\n%s", out.String())
	}
}

func TestWaitFailureSignal(t *testing.T) {
	var out bytes.Buffer
	p, _ := newTestPoller(time.Minute, time.Second, &out)

	err := p.Wait(context.Background(), scriptedStatus("down"))

	var failed *domain.DeployFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected *domain.DeployFailedError, got %T: %v", err, err)
	}
	if failed.Status != "down" {
		t.Errorf("Status = %q, want %q", failed.Status, "down")
	}
}

func TestWaitTimesOutWithinBudget(t *testing.T) {
	var out bytes.Buffer
	p, fs := newTestPoller(10*time.Second, 3*time.Second, &out)

	err := p.Wait(context.Background(), scriptedStatus("building"))

	var timeout *domain.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected *domain.TimeoutError, got %T: %v", err, err)
	}
	// 3 polls fit in 10s at 3s each; the fourth would exceed MaxWait.
	if len(fs.slept) != 3 {
		t.Errorf("slept %d intervals, want 3", len(fs.slept))
	}
	if timeout.Waited != 9*time.Second {
		t.Errorf("Waited = %s, want 9s", timeout.Waited)
	}
}

func TestWaitQueryErrorIsInconclusive(t *testing.T) {
	var out bytes.Buffer
	p, fs := newTestPoller(30*time.Second, 10*time.Second, &out)

	calls := 0
	status := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &domain.ExecutionError{Command: "railway status", Message: "timed out after 10s"}
		}
		return "up", nil
	}

	if err := p.Wait(context.Background(), status); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fs.slept) != 2 {
		t.Errorf("slept %d intervals, want 2", len(fs.slept))
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	p := New(plainClassifier, time.Minute, 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, scriptedStatus("building"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePolling, "polling"},
		{StateReady, "ready"},
		{StateFailed, "failed"},
		{StateTimedOut, "timedOut"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
