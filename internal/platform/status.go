package platform

import (
	"encoding/json"
	"sort"
	"strings"

	"shipctl/internal/readiness"
)

// Terminal and in-flight states the platform CLI is known to report.
// The output format is not a stable contract, so anything unrecognized
// is inconclusive and keeps the poller going.
var (
	successStates = map[string]bool{
		"SUCCESS":   true,
		"DEPLOYED":  true,
		"ACTIVE":    true,
		"COMPLETED": true,
	}
	failureStates = map[string]bool{
		"FAILED":  true,
		"CRASHED": true,
		"ERROR":   true,
		"REMOVED": true,
	}
)

// ClassifyDeployStatus is the readiness.Classifier for the platform's
// "status --json" output. It looks for a status/state field anywhere in
// the JSON document; if the output is not JSON it falls back to
// scanning for known state words. A query error is inconclusive — a
// flaky status command must not fail a deployment that is still
// progressing.
func ClassifyDeployStatus(output string, err error) (readiness.Signal, string) {
	if err != nil {
		return readiness.SignalInconclusive, "status query failed: " + err.Error()
	}

	state, ok := statusFromJSON(output)
	if !ok {
		state, ok = statusFromText(output)
	}
	if !ok {
		return readiness.SignalInconclusive, "no recognizable status in output"
	}

	upper := strings.ToUpper(state)
	switch {
	case successStates[upper]:
		return readiness.SignalSuccess, state
	case failureStates[upper]:
		return readiness.SignalFailure, state
	default:
		return readiness.SignalInconclusive, state
	}
}

// statusFromJSON decodes the output and searches it for a string-valued
// "status" or "state" field, depth-first with sorted keys so the result
// is deterministic.
func statusFromJSON(output string) (string, bool) {
	var doc any
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		return "", false
	}
	return findStatusField(doc)
}

func findStatusField(v any) (string, bool) {
	switch node := v.(type) {
	case map[string]any:
		for _, key := range []string{"status", "state"} {
			if s, ok := node[key].(string); ok && s != "" {
				return s, true
			}
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := findStatusField(node[k]); ok {
				return s, true
			}
		}
	case []any:
		for _, item := range node {
			if s, ok := findStatusField(item); ok {
				return s, true
			}
		}
	}
	return "", false
}

// statusFromText scans non-JSON output for a known state word.
func statusFromText(output string) (string, bool) {
	for _, field := range strings.Fields(strings.ToUpper(output)) {
		field = strings.Trim(field, ".,:;\"'")
		if successStates[field] || failureStates[field] {
			return field, true
		}
	}
	return "", false
}
