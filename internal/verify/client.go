package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxProbeBody caps how much of a response body a probe will read.
const maxProbeBody = 1 << 20

// httpResult is one timed HTTP round trip.
type httpResult struct {
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
}

// httpProber issues single GET round trips with timing. One instance
// is shared across probes so connections are reused against the same
// target.
type httpProber struct {
	client *http.Client
}

func newHTTPProber(timeout time.Duration) *httpProber {
	return &httpProber{client: &http.Client{Timeout: timeout}}
}

// get performs one GET and returns status, body, and round-trip time.
// Any transport error is returned as-is; probes record it as their
// failure detail.
func (p *httpProber) get(ctx context.Context, url string) (*httpResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid probe URL %s: %w", url, err)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	return &httpResult{StatusCode: resp.StatusCode, Body: body, Elapsed: elapsed}, nil
}
