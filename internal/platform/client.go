// Package platform drives the hosting platform's own CLI tool. The
// tool is an opaque boundary: shipctl shells out for every operation
// and never speaks to the platform API directly.
package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shipctl/internal/retry"
	"shipctl/internal/runner"
	"shipctl/internal/services/auth"
)

const (
	// queryTimeout bounds read-only queries (version, whoami, status,
	// domains).
	queryTimeout = 30 * time.Second

	// deployTimeout bounds the deploy trigger, which uploads the
	// working tree and can legitimately take a while.
	deployTimeout = 10 * time.Minute
)

// Client wraps one platform CLI tool rooted in one project directory.
type Client struct {
	runner runner.Runner
	tool   string
	dir    string

	// env carries the token variable when a token is stored, e.g.
	// RAILWAY_TOKEN=... for the railway tool.
	env []string

	retryCfg retry.Config
}

// NewClient builds a client for the given tool in dir. A token stored
// under the tool's name is exported to the tool's environment; a
// missing token is not an error here — preflight checks
// authentication explicitly via Whoami.
func NewClient(r runner.Runner, tool, dir string, store auth.Store) *Client {
	c := &Client{
		runner:   r,
		tool:     tool,
		dir:      dir,
		retryCfg: retry.DefaultConfig(),
	}
	if store != nil {
		if token, err := store.GetToken(tool); err == nil && token != "" {
			c.env = []string{TokenEnvVar(tool) + "=" + token}
		}
	}
	return c
}

// Tool returns the tool binary name.
func (c *Client) Tool() string { return c.tool }

// TokenEnvVar maps a tool name to the environment variable its CLI
// reads the API token from.
func TokenEnvVar(tool string) string {
	switch auth.NormalizeTool(tool) {
	case "railway":
		return "RAILWAY_TOKEN"
	case "flyctl", "fly":
		return "FLY_API_TOKEN"
	default:
		return strings.ToUpper(auth.NormalizeTool(tool)) + "_TOKEN"
	}
}

func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	return c.runner.Run(ctx, runner.Options{
		Name:    c.tool,
		Args:    args,
		Dir:     c.dir,
		Env:     c.env,
		Timeout: timeout,
	})
}

// ToolVersion reports the installed tool version. Failure means the
// tool is not installed or not on PATH.
func (c *Client) ToolVersion(ctx context.Context) (string, error) {
	out, err := c.run(ctx, queryTimeout, "--version")
	if err != nil {
		return "", fmt.Errorf("platform: %s is not installed or not on PATH: %w", c.tool, err)
	}
	return out, nil
}

// Whoami reports the authenticated identity. Retried on transient
// failures; an authentication failure surfaces as-is.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	var out string
	err := retry.Do(ctx, c.retryCfg, retry.IsTransient, func() error {
		var runErr error
		out, runErr = c.run(ctx, queryTimeout, "whoami")
		return runErr
	})
	if err != nil {
		return "", fmt.Errorf("platform: not authenticated with %s: %w", c.tool, err)
	}
	return out, nil
}

// Deploy triggers a deployment of the current working tree and returns
// without waiting for it to finish. Readiness is the poller's job.
func (c *Client) Deploy(ctx context.Context) (string, error) {
	out, err := c.run(ctx, deployTimeout, "up", "--detach")
	if err != nil {
		return "", fmt.Errorf("platform: deploy trigger failed: %w", err)
	}
	return out, nil
}

// Status queries the deployment status in structured form. Callers
// classify the output; the raw error is returned unwrapped so the
// poller can treat it as inconclusive.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.run(ctx, queryTimeout, "status", "--json")
}

// Domains lists the domains attached to the service, one per line of
// tool output. Retried on transient failures.
func (c *Client) Domains(ctx context.Context) ([]string, error) {
	var out string
	err := retry.Do(ctx, c.retryCfg, retry.IsTransient, func() error {
		var runErr error
		out, runErr = c.run(ctx, queryTimeout, "domain")
		return runErr
	})
	if err != nil {
		return nil, fmt.Errorf("platform: failed to list domains: %w", err)
	}

	var domains []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			domains = append(domains, line)
		}
	}
	return domains, nil
}
