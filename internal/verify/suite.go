// Package verify probes a freshly deployed service and aggregates the
// results into a report.
//
// Probes run sequentially with a short fixed delay between them:
// deterministic ordering, and no burst of traffic against a service
// that just restarted. Each probe is isolated — a failure is recorded
// and the remaining probes still run, so the report always covers the
// full probe set.
package verify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Probe names, also used by the recommendation categorizer.
const (
	ProbeBasicHealth    = "basic health"
	ProbeDetailedHealth = "detailed health"
	ProbeDatabaseHealth = "database health"
	ProbeMemoryHealth   = "memory health"
	ProbeMetrics        = "metrics"
	ProbeWSConnectivity = "websocket connectivity"
	ProbeWSAuth         = "websocket auth"
	ProbeNotFound       = "not-found handling"
	ProbeLatency        = "response latency"
)

// ProbeCount is the fixed size of the probe set.
const ProbeCount = 9

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultWSTimeout   = 5 * time.Second
	defaultDelay       = 500 * time.Millisecond
)

// Suite runs the fixed probe set against one target.
type Suite struct {
	// Delay is the fixed pause between probes.
	Delay time.Duration

	// Out receives a status line per probe. Never nil after NewSuite.
	Out io.Writer

	http *httpProber
	ws   *wsProber
}

// NewSuite returns a suite with production timeouts writing progress
// to out.
func NewSuite(out io.Writer) *Suite {
	if out == nil {
		out = io.Discard
	}
	return &Suite{
		Delay: defaultDelay,
		Out:   out,
		http:  newHTTPProber(defaultHTTPTimeout),
		ws:    newWSProber(defaultWSTimeout),
	}
}

// NewSuiteWithTimeouts returns a suite with explicit probe timeouts.
// Used by tests to keep failure probes fast.
func NewSuiteWithTimeouts(out io.Writer, httpTimeout, wsTimeout, delay time.Duration) *Suite {
	s := NewSuite(out)
	s.Delay = delay
	s.http = newHTTPProber(httpTimeout)
	s.ws = newWSProber(wsTimeout)
	return s
}

type probe struct {
	name string
	run  func(ctx context.Context, target string) (string, error)
}

func (s *Suite) probeSet() []probe {
	return []probe{
		{ProbeBasicHealth, s.probeBasicHealth},
		{ProbeDetailedHealth, s.probeDetailedHealth},
		{ProbeDatabaseHealth, func(ctx context.Context, target string) (string, error) {
			return s.probeDependencyHealth(ctx, target, pathHealthDB)
		}},
		{ProbeMemoryHealth, func(ctx context.Context, target string) (string, error) {
			return s.probeDependencyHealth(ctx, target, pathHealthMemory)
		}},
		{ProbeMetrics, s.probeMetrics},
		{ProbeWSConnectivity, s.probeWSConnectivity},
		{ProbeWSAuth, s.probeWSAuth},
		{ProbeNotFound, s.probeNotFound},
		{ProbeLatency, s.probeLatency},
	}
}

// Run executes every probe against target and returns the report.
// It never aborts early: Summary.Total always equals ProbeCount.
func (s *Suite) Run(ctx context.Context, target string) *Report {
	target = strings.TrimSuffix(target, "/")

	report := &Report{Target: target, GeneratedAt: time.Now().UTC()}

	for i, p := range s.probeSet() {
		if i > 0 && s.Delay > 0 {
			sleepCtx(ctx, s.Delay)
		}

		start := time.Now()
		detail, err := p.run(ctx, target)
		result := Result{
			Name:      p.name,
			Status:    StatusPass,
			Detail:    detail,
			Timestamp: time.Now().UTC(),
			Duration:  time.Since(start),
		}
		if err != nil {
			result.Status = StatusFail
			result.Detail = err.Error()
		}
		report.Results = append(report.Results, result)

		marker := "ok"
		if result.Status == StatusFail {
			marker = "FAIL"
		}
		fmt.Fprintf(s.Out, "  [%s] %s: %s\n", marker, p.name, result.Detail)
	}

	report.Summary = summarize(report.Results)
	report.Recommendations = recommend(report)
	return report
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
