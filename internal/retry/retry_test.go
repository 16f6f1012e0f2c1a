package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"shipctl/internal/domain"
)

func TestDo_RetriesOnTransientError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, IsTransient, func() error {
		attempts++
		return &domain.ExecutionError{Command: "railway whoami", Message: "timed out after 30s"}
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDo_NoRetryOnRealFailure(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, IsTransient, func() error {
		attempts++
		return &domain.ExecutionError{Command: "railway whoami", Message: "exit status 1", Stderr: "not logged in"}
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, IsTransient, func() error {
		attempts++
		if attempts == 1 {
			return &domain.ExecutionError{Command: "railway domain", Message: "exit status 1", Stderr: "connection reset by peer"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, Config{MaxAttempts: 3}, IsTransient, func() error {
		attempts++
		return context.DeadlineExceeded
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", attempts)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
		{"exec timeout", &domain.ExecutionError{Message: "timed out after 10s"}, true},
		{"exec network stderr", &domain.ExecutionError{Message: "exit status 1", Stderr: "dial tcp: connection refused"}, true},
		{"exec auth failure", &domain.ExecutionError{Message: "exit status 1", Stderr: "unauthorized"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffDelay_NoBaseDelay(t *testing.T) {
	if delay := backoffDelay(0, time.Second, 1); delay != 0 {
		t.Fatalf("expected zero delay, got %v", delay)
	}
}
