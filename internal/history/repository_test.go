package history

import (
	"path/filepath"
	"testing"
	"time"
)

func tempRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shipctl.db")
	r, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSave_AssignsIDAndTimestamp(t *testing.T) {
	r := tempRepo(t)

	entry := &Entry{
		Command:    "deploy",
		Commit:     "aaa111",
		Outcome:    OutcomeSuccess,
		DurationMs: 4200,
	}

	if err := r.Save(entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if entry.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if entry.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
}

func TestListNewestFirst(t *testing.T) {
	r := tempRepo(t)

	for i := range 3 {
		entry := &Entry{
			Command:   "deploy",
			Commit:    "commit" + string(rune('a'+i)),
			Outcome:   OutcomeSuccess,
			StartedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := r.Save(entry); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := r.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Commit != "commitc" {
		t.Errorf("first entry = %q, want newest", entries[0].Commit)
	}
}

func TestPruneRemovesOldEntries(t *testing.T) {
	r := tempRepo(t)

	old := &Entry{Command: "deploy", Outcome: OutcomeFailed, StartedAt: time.Now().UTC().Add(-48 * time.Hour)}
	recent := &Entry{Command: "deploy", Outcome: OutcomeSuccess, StartedAt: time.Now().UTC()}
	for _, e := range []*Entry{old, recent} {
		if err := r.Save(e); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	removed, err := r.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	entries, err := r.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != OutcomeSuccess {
		t.Errorf("unexpected surviving entries: %+v", entries)
	}
}

func TestEntryFromRecord(t *testing.T) {
	record := NewRecord("aaa111", "bbb222", "https://api.example.com")
	record.StartStep("preflight")
	record.CompleteStep("preflight", "")
	record.Finish(true)

	entry := EntryFromRecord("deploy", record, OutcomeSuccess, "")
	if entry.Commit != "aaa111" || entry.PreviousCommit != "bbb222" {
		t.Errorf("commits not carried over: %+v", entry)
	}
	if entry.Steps != 2 {
		t.Errorf("Steps = %d, want 2", entry.Steps)
	}
}
