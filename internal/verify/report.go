package verify

import "time"

// Probe statuses.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Result is the outcome of one probe.
type Result struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Detail    string        `json:"detail,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration_ns"`
}

// Summary aggregates the probe results.
type Summary struct {
	Total   int  `json:"total"`
	Passed  int  `json:"passed"`
	Failed  int  `json:"failed"`
	Success bool `json:"success"`
}

// Report is the immutable outcome of one verification run.
type Report struct {
	Target          string    `json:"target"`
	Results         []Result  `json:"results"`
	Summary         Summary   `json:"summary"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// FailedResults returns the probes that failed, in run order.
func (r *Report) FailedResults() []Result {
	var failed []Result
	for _, result := range r.Results {
		if result.Status == StatusFail {
			failed = append(failed, result)
		}
	}
	return failed
}

func summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Status == StatusPass {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	s.Success = s.Failed == 0
	return s
}
