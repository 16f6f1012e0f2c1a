package deploy

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shipctl/internal/config"
	"shipctl/internal/domain"
	"shipctl/internal/history"
	"shipctl/internal/readiness"
	"shipctl/internal/runner"
	"shipctl/internal/verify"
)

type fakePlatform struct {
	versionErr error
	whoamiErr  error
	deployErr  error

	deployCalls int
}

func (p *fakePlatform) ToolVersion(ctx context.Context) (string, error) {
	return "railway 3.5.0", p.versionErr
}

func (p *fakePlatform) Whoami(ctx context.Context) (string, error) {
	return "dev@example.com", p.whoamiErr
}

func (p *fakePlatform) Deploy(ctx context.Context) (string, error) {
	p.deployCalls++
	return "", p.deployErr
}

func (p *fakePlatform) Status(ctx context.Context) (string, error) {
	return `{"status":"SUCCESS"}`, nil
}

type fakeGit struct {
	head     string
	previous string
	prevErr  error
}

func (g *fakeGit) Current(ctx context.Context) (string, error) { return g.head, nil }

func (g *fakeGit) Previous(ctx context.Context) (string, error) {
	return g.previous, g.prevErr
}

type fakeRunner struct {
	err   error
	calls []string
}

func (r *fakeRunner) Run(ctx context.Context, opts runner.Options) (string, error) {
	r.calls = append(r.calls, opts.CommandLine())
	return "", r.err
}

type fakeVerifier struct {
	failed int
	calls  int
}

func (v *fakeVerifier) Run(ctx context.Context, target string) *verify.Report {
	v.calls++
	return &verify.Report{
		Target: target,
		Summary: verify.Summary{
			Total:   verify.ProbeCount,
			Passed:  verify.ProbeCount - v.failed,
			Failed:  v.failed,
			Success: v.failed == 0,
		},
	}
}

type fakeRollbacker struct {
	err       error
	revisions []string
}

func (r *fakeRollbacker) Rollback(ctx context.Context, revision string) error {
	r.revisions = append(r.revisions, revision)
	return r.err
}

type memoryHistory struct {
	entries []history.Entry
}

func (h *memoryHistory) Save(entry *history.Entry) error {
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *memoryHistory) List(limit int) ([]history.Entry, error) { return h.entries, nil }

func (h *memoryHistory) Prune(olderThan time.Duration) (int64, error) { return 0, nil }

func (h *memoryHistory) Close() error { return nil }

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Tool:          "railway",
		TargetURL:     "https://app.example.com",
		TestCommand:   "npm test",
		RequiredFiles: []string{"package.json"},
		StateDir:      filepath.Join(t.TempDir(), ".shipctl"),
	}
}

func testPoller() *readiness.Poller {
	classify := func(output string, err error) (readiness.Signal, string) {
		return readiness.SignalSuccess, "SUCCESS"
	}
	return readiness.New(classify, 50*time.Millisecond, time.Millisecond, io.Discard)
}

type fixture struct {
	orchestrator *Orchestrator
	platform     *fakePlatform
	git          *fakeGit
	runner       *fakeRunner
	verifier     *fakeVerifier
	rollbacker   *fakeRollbacker
	history      *memoryHistory
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		platform:   &fakePlatform{},
		git:        &fakeGit{head: "bbbb2222", previous: "aaaa1111"},
		runner:     &fakeRunner{},
		verifier:   &fakeVerifier{},
		rollbacker: &fakeRollbacker{},
		history:    &memoryHistory{},
	}
	f.orchestrator = &Orchestrator{
		Config:     testConfig(t),
		Runner:     f.runner,
		Platform:   f.platform,
		Git:        f.git,
		Poller:     testPoller(),
		Verifier:   f.verifier,
		Rollbacker: f.rollbacker,
		History:    f.history,
		Out:        io.Discard,
		stat:       func(string) (os.FileInfo, error) { return nil, nil },
	}
	return f
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.orchestrator.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	record := outcome.Record
	if !record.Success {
		t.Error("record not marked successful")
	}
	if record.Commit != "bbbb2222" || record.PreviousCommit != "aaaa1111" {
		t.Errorf("record commits = %s/%s", record.Commit, record.PreviousCommit)
	}
	if outcome.RolledBack {
		t.Error("rolled back on success")
	}
	if len(f.runner.calls) != 1 || f.runner.calls[0] != "sh -c npm test" {
		t.Errorf("test command calls = %v", f.runner.calls)
	}

	loaded, err := history.LoadLast(f.orchestrator.Config.StateDir)
	if err != nil {
		t.Fatalf("LoadLast: %v", err)
	}
	if loaded == nil || loaded.Commit != "bbbb2222" {
		t.Errorf("last-deploy record = %+v", loaded)
	}

	if len(f.history.entries) != 1 || f.history.entries[0].Outcome != history.OutcomeSuccess {
		t.Errorf("history entries = %+v", f.history.entries)
	}
}

func TestRunPreflightIsReadOnly(t *testing.T) {
	f := newFixture(t)
	f.platform.whoamiErr = errors.New("not logged in")

	outcome, err := f.orchestrator.Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	if outcome != nil {
		t.Error("outcome produced for a preflight failure")
	}
	if f.platform.deployCalls != 0 {
		t.Error("deploy triggered despite preflight failure")
	}
	if len(f.rollbacker.revisions) != 0 {
		t.Error("rollback issued despite preflight failure")
	}
}

func TestRunMissingTargetURLIsConfigError(t *testing.T) {
	f := newFixture(t)
	f.orchestrator.Config.TargetURL = ""

	_, err := f.orchestrator.Run(context.Background(), Options{})
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
	if f.platform.deployCalls != 0 {
		t.Error("deploy triggered without a target URL")
	}
}

func TestRunMissingRequiredFileIsConfigError(t *testing.T) {
	f := newFixture(t)
	f.orchestrator.stat = func(path string) (os.FileInfo, error) {
		return nil, fs.ErrNotExist
	}

	_, err := f.orchestrator.Run(context.Background(), Options{})
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
}

func TestRunSkipTests(t *testing.T) {
	f := newFixture(t)
	f.runner.err = errors.New("tests would fail")

	if _, err := f.orchestrator.Run(context.Background(), Options{SkipTests: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.runner.calls) != 0 {
		t.Errorf("test command ran despite --skip-tests: %v", f.runner.calls)
	}
}

func TestRunFailingTestsAbortBeforeDeploy(t *testing.T) {
	f := newFixture(t)
	f.runner.err = &domain.ExecutionError{Command: "sh -c npm test", Message: "exit status 1"}

	_, err := f.orchestrator.Run(context.Background(), Options{})
	var execErr *domain.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want ExecutionError", err)
	}
	if f.platform.deployCalls != 0 {
		t.Error("deploy triggered despite failing tests")
	}
}

func TestRunDeployFailureRollsBackToPreflightRevision(t *testing.T) {
	f := newFixture(t)
	deployErr := errors.New("deploy trigger failed")
	f.platform.deployErr = deployErr

	outcome, err := f.orchestrator.Run(context.Background(), Options{})
	if !errors.Is(err, deployErr) {
		t.Fatalf("original error lost: %v", err)
	}
	if !outcome.RolledBack {
		t.Error("outcome not marked rolled back")
	}
	if len(f.rollbacker.revisions) != 1 || f.rollbacker.revisions[0] != "aaaa1111" {
		t.Errorf("rollback revisions = %v, want [aaaa1111]", f.rollbacker.revisions)
	}

	record := outcome.Record
	if record.StepStatus(phaseDeploy) != history.StepFailed {
		t.Errorf("deployment step = %q, want failed", record.StepStatus(phaseDeploy))
	}
	if detail := stepDetail(record, phaseDeploy); detail != deployErr.Error() {
		t.Errorf("deployment step detail = %q, want original message", detail)
	}

	if len(f.history.entries) != 1 || f.history.entries[0].Outcome != history.OutcomeRolledBack {
		t.Errorf("history entries = %+v", f.history.entries)
	}
	if loaded, _ := history.LoadLast(f.orchestrator.Config.StateDir); loaded != nil {
		t.Error("last-deploy record written for a failed run")
	}
}

func TestRunVerificationFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.verifier.failed = 3

	outcome, err := f.orchestrator.Run(context.Background(), Options{})
	var failErr *domain.DeployFailedError
	if !errors.As(err, &failErr) {
		t.Fatalf("err = %v, want DeployFailedError", err)
	}
	if !outcome.RolledBack {
		t.Error("outcome not marked rolled back")
	}
	if outcome.Report == nil || outcome.Report.Summary.Failed != 3 {
		t.Errorf("report = %+v", outcome.Report)
	}
}

func TestRunDoubleFailureReportsBothErrors(t *testing.T) {
	f := newFixture(t)
	deployErr := errors.New("deploy trigger failed")
	rollbackErr := errors.New("checkout refused")
	f.platform.deployErr = deployErr
	f.rollbacker.err = rollbackErr

	outcome, err := f.orchestrator.Run(context.Background(), Options{})
	if !errors.Is(err, deployErr) {
		t.Errorf("original error missing: %v", err)
	}
	if !errors.Is(err, rollbackErr) {
		t.Errorf("rollback error missing: %v", err)
	}
	if outcome.RolledBack {
		t.Error("outcome marked rolled back after failed rollback")
	}
	if outcome.Record.StepStatus(phaseRollback) != history.StepFailed {
		t.Errorf("rollback step = %q, want failed", outcome.Record.StepStatus(phaseRollback))
	}
}

func TestRunNoPreviousRevisionSkipsRollback(t *testing.T) {
	f := newFixture(t)
	f.git.previous = ""
	f.git.prevErr = errors.New("no parent commit")
	f.platform.deployErr = errors.New("deploy trigger failed")

	outcome, err := f.orchestrator.Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected deploy failure")
	}
	if outcome.RolledBack {
		t.Error("rolled back without a previous revision")
	}
	if len(f.rollbacker.revisions) != 0 {
		t.Errorf("rollback issued: %v", f.rollbacker.revisions)
	}
}

func stepDetail(record *history.DeploymentRecord, name string) string {
	detail := ""
	for _, s := range record.Steps {
		if s.Name == name {
			detail = s.Detail
		}
	}
	return detail
}
