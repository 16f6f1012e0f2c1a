package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Probe endpoints on the target service.
const (
	pathHealth         = "/health"
	pathHealthDetailed = "/health/detailed"
	pathHealthDB       = "/health/db"
	pathHealthMemory   = "/health/memory"
	pathMetrics        = "/metrics"
	pathWS             = "/ws"

	// pathNotFound must never exist; the probe asserts the service
	// 404s cleanly instead of crashing or catching-all.
	pathNotFound = "/definitely-not-a-real-route"
)

// operationalStates are the health status values treated as "service up".
var operationalStates = map[string]bool{
	"ok":          true,
	"up":          true,
	"healthy":     true,
	"operational": true,
}

// requiredHealthFields must all be present in the basic health payload.
var requiredHealthFields = []string{"uptime", "version", "environment", "timestamp"}

// latencyBudgets are the per-endpoint round-trip budgets for the
// latency probe. A breach is informational, never a probe failure.
var latencyBudgets = map[string]time.Duration{
	pathHealth:  500 * time.Millisecond,
	pathMetrics: 1 * time.Second,
}

func decodeObject(body []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return doc, nil
}

// findBool locates a boolean field by key anywhere in the payload.
func findBool(v any, key string) (bool, bool) {
	switch node := v.(type) {
	case map[string]any:
		if b, ok := node[key].(bool); ok {
			return b, true
		}
		for _, child := range node {
			if b, ok := findBool(child, key); ok {
				return b, true
			}
		}
	case []any:
		for _, item := range node {
			if b, ok := findBool(item, key); ok {
				return b, true
			}
		}
	}
	return false, false
}

// probeBasicHealth checks the liveness endpoint: 200, an operational
// status value, and the descriptive fields a healthy service reports.
func (s *Suite) probeBasicHealth(ctx context.Context, target string) (string, error) {
	res, err := s.http.get(ctx, target+pathHealth)
	if err != nil {
		return "", err
	}
	if res.StatusCode != 200 {
		return "", fmt.Errorf("status %d, want 200", res.StatusCode)
	}

	doc, err := decodeObject(res.Body)
	if err != nil {
		return "", err
	}

	status, _ := doc["status"].(string)
	if !operationalStates[strings.ToLower(status)] {
		return "", fmt.Errorf("status field %q is not an operational state", status)
	}

	var missing []string
	for _, field := range requiredHealthFields {
		if _, ok := doc[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	return fmt.Sprintf("status %q, all descriptive fields present", status), nil
}

// probeDetailedHealth checks the detailed endpoint enumerates
// sub-service statuses. 503 is acceptable — a degraded service still
// reports.
func (s *Suite) probeDetailedHealth(ctx context.Context, target string) (string, error) {
	res, err := s.http.get(ctx, target+pathHealthDetailed)
	if err != nil {
		return "", err
	}
	if res.StatusCode != 200 && res.StatusCode != 503 {
		return "", fmt.Errorf("status %d, want 200 or 503", res.StatusCode)
	}

	doc, err := decodeObject(res.Body)
	if err != nil {
		return "", err
	}

	count := subServiceCount(doc)
	if count == 0 {
		return "", fmt.Errorf("payload enumerates no sub-service statuses")
	}
	return fmt.Sprintf("%d sub-services reported (HTTP %d)", count, res.StatusCode), nil
}

// subServiceCount counts entries under the payload's services/checks
// collection, whichever the service calls it.
func subServiceCount(doc map[string]any) int {
	for _, key := range []string{"services", "checks", "components"} {
		switch v := doc[key].(type) {
		case map[string]any:
			return len(v)
		case []any:
			return len(v)
		}
	}
	return 0
}

// probeDependencyHealth checks an endpoint of the db/memory shape: 200
// or 503 with an explicit boolean healthy flag.
func (s *Suite) probeDependencyHealth(ctx context.Context, target, path string) (string, error) {
	res, err := s.http.get(ctx, target+path)
	if err != nil {
		return "", err
	}
	if res.StatusCode != 200 && res.StatusCode != 503 {
		return "", fmt.Errorf("status %d, want 200 or 503", res.StatusCode)
	}

	doc, err := decodeObject(res.Body)
	if err != nil {
		return "", err
	}

	healthy, ok := findBool(doc, "healthy")
	if !ok {
		return "", fmt.Errorf("payload has no boolean healthy flag")
	}
	return fmt.Sprintf("healthy=%t (HTTP %d)", healthy, res.StatusCode), nil
}

// probeMetrics checks the metrics endpoint returns a non-empty
// structured object.
func (s *Suite) probeMetrics(ctx context.Context, target string) (string, error) {
	res, err := s.http.get(ctx, target+pathMetrics)
	if err != nil {
		return "", err
	}
	if res.StatusCode != 200 {
		return "", fmt.Errorf("status %d, want 200", res.StatusCode)
	}

	doc, err := decodeObject(res.Body)
	if err != nil {
		return "", err
	}
	if len(doc) == 0 {
		return "", fmt.Errorf("metrics payload is empty")
	}
	return fmt.Sprintf("%d top-level metric groups", len(doc)), nil
}

// probeWSConnectivity opens the realtime channel, sends one ping, and
// passes if any frame comes back before the timeout.
func (s *Suite) probeWSConnectivity(ctx context.Context, target string) (string, error) {
	endpoint, err := wsEndpoint(target, pathWS)
	if err != nil {
		return "", err
	}

	frame, err := s.ws.exchange(ctx, endpoint, wsFrame{Type: "ping"})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("channel responded with %q frame", frame.Type), nil
}

// probeWSAuth sends an anonymous auth frame and passes on any
// authentication outcome — success or a structured failure both prove
// the auth path is alive.
func (s *Suite) probeWSAuth(ctx context.Context, target string) (string, error) {
	endpoint, err := wsEndpoint(target, pathWS)
	if err != nil {
		return "", err
	}

	authFrame := wsFrame{Type: "auth", Payload: json.RawMessage(`{"anonymous":true}`)}
	frame, err := s.ws.awaitFrameType(ctx, endpoint, authFrame, "auth_success", "auth_error")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("auth outcome %q received", frame.Type), nil
}

// probeNotFound checks unknown routes 404 — exactly 404, not a 200
// catch-all and not a 500.
func (s *Suite) probeNotFound(ctx context.Context, target string) (string, error) {
	res, err := s.http.get(ctx, target+pathNotFound)
	if err != nil {
		return "", err
	}
	if res.StatusCode != 404 {
		return "", fmt.Errorf("status %d for unknown route, want exactly 404", res.StatusCode)
	}
	return "unknown route returns 404", nil
}

// probeLatency times each budgeted endpoint. Budget breaches are
// informational; only a failed request fails the probe.
func (s *Suite) probeLatency(ctx context.Context, target string) (string, error) {
	var details []string
	for _, path := range []string{pathHealth, pathMetrics} {
		budget := latencyBudgets[path]
		res, err := s.http.get(ctx, target+path)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		if res.Elapsed > budget {
			details = append(details, fmt.Sprintf("%s took %s (budget %s, informational)", path, res.Elapsed.Round(time.Millisecond), budget))
		} else {
			details = append(details, fmt.Sprintf("%s in %s (budget %s)", path, res.Elapsed.Round(time.Millisecond), budget))
		}
	}
	return strings.Join(details, "; "), nil
}
