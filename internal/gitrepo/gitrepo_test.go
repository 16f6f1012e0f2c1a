package gitrepo

import (
	"context"
	"strings"
	"testing"

	"shipctl/internal/runner"

	"github.com/google/go-cmp/cmp"
)

// scriptedRunner maps joined git args to canned output.
type scriptedRunner struct {
	calls   [][]string
	outputs map[string]string
}

func (s *scriptedRunner) Run(_ context.Context, opts runner.Options) (string, error) {
	s.calls = append(s.calls, append([]string{opts.Name}, opts.Args...))
	return s.outputs[strings.Join(opts.Args, " ")], nil
}

func TestRecentParsesLog(t *testing.T) {
	s := &scriptedRunner{outputs: map[string]string{
		"log -3 --pretty=format:%H\t%s": "aaa111\tfix websocket reconnect\nbbb222\tadd healthcheck\nccc333\tinitial commit",
	}}
	repo := New(s, "")

	revs, err := repo.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Revision{
		{ID: "aaa111", Subject: "fix websocket reconnect"},
		{ID: "bbb222", Subject: "add healthcheck"},
		{ID: "ccc333", Subject: "initial commit"},
	}
	if diff := cmp.Diff(want, revs); diff != "" {
		t.Errorf("revisions mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAppendsCommitSuffix(t *testing.T) {
	s := &scriptedRunner{outputs: map[string]string{
		"rev-parse --verify abc123^{commit}": "abc123def456",
	}}
	repo := New(s, "")

	full, err := repo.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full != "abc123def456" {
		t.Errorf("Resolve = %q", full)
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"4f2d8a913c0be2f1", "4f2d8a91"},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		if got := (Revision{ID: tt.id}).ShortID(); got != tt.want {
			t.Errorf("ShortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestCheckoutRunsGitInRepoDir(t *testing.T) {
	s := &scriptedRunner{outputs: map[string]string{}}
	repo := New(s, "/srv/app")

	if err := repo.Checkout(context.Background(), "bbb222"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"git", "checkout", "bbb222"}}
	if diff := cmp.Diff(want, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}
