// Package history records what every deploy and rollback run did.
//
// Two layers of persistence: the full DeploymentRecord of the most
// recent successful deploy as JSON in the project state dir (read back
// by rollback for context), and a row per run in the local SQLite
// database behind "shipctl history".
package history

import "time"

// now is swapped out by tests for deterministic timestamps.
var now = time.Now

// Step statuses.
const (
	StepStarted   = "started"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// StepRecord is one phase transition in a run.
type StepRecord struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DeploymentRecord is the append-only audit trail of one run. It is
// created once at the start, grows step by step, and is serialized
// exactly once at completion — never reopened.
type DeploymentRecord struct {
	Commit         string       `json:"commit"`
	PreviousCommit string       `json:"previous_commit,omitempty"`
	TargetURL      string       `json:"target_url,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	EndedAt        time.Time    `json:"ended_at"`
	Steps          []StepRecord `json:"steps"`
	Success        bool         `json:"success"`
}

// NewRecord starts a record for a run deploying commit on top of
// previousCommit.
func NewRecord(commit, previousCommit, targetURL string) *DeploymentRecord {
	return &DeploymentRecord{
		Commit:         commit,
		PreviousCommit: previousCommit,
		TargetURL:      targetURL,
		StartedAt:      now().UTC(),
	}
}

func (r *DeploymentRecord) addStep(name, status, detail string) {
	r.Steps = append(r.Steps, StepRecord{
		Name:      name,
		Status:    status,
		Detail:    detail,
		Timestamp: now().UTC(),
	})
}

// StartStep appends a started entry for the named phase.
func (r *DeploymentRecord) StartStep(name string) {
	r.addStep(name, StepStarted, "")
}

// CompleteStep appends a completed entry for the named phase.
func (r *DeploymentRecord) CompleteStep(name, detail string) {
	r.addStep(name, StepCompleted, detail)
}

// FailStep appends a failed entry carrying the original error message.
func (r *DeploymentRecord) FailStep(name, detail string) {
	r.addStep(name, StepFailed, detail)
}

// Finish stamps the end of the run. Called exactly once.
func (r *DeploymentRecord) Finish(success bool) {
	r.EndedAt = now().UTC()
	r.Success = success
}

// Duration is the wall-clock length of the run.
func (r *DeploymentRecord) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// StepStatus returns the final status recorded for the named step, or
// "" if the step never ran.
func (r *DeploymentRecord) StepStatus(name string) string {
	status := ""
	for _, s := range r.Steps {
		if s.Name == name {
			status = s.Status
		}
	}
	return status
}
