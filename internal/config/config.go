// Package config handles per-project deployment configuration.
//
// Configuration is stored as JSON in shipctl.json at the repository
// root. Environment variables SHIPCTL_TARGET_URL and SHIPCTL_TOOL
// override the corresponding file values, so CI can point a verify run
// at any environment without touching the file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const fileName = "shipctl.json"

// EnvTargetURL overrides Config.TargetURL when set.
const EnvTargetURL = "SHIPCTL_TARGET_URL"

// EnvTool overrides Config.Tool when set.
const EnvTool = "SHIPCTL_TOOL"

// pathOverride, when non-empty, replaces the default config file path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Config holds the deployment settings for one project.
type Config struct {
	// Tool is the platform CLI binary used for deploys (default "railway").
	Tool string `json:"tool,omitempty"`

	// TargetURL is the base URL of the deployed service, used by the
	// verification suite.
	TargetURL string `json:"target_url,omitempty"`

	// Environment names the platform environment being deployed to
	// (e.g. "production"). Informational, recorded with each deploy.
	Environment string `json:"environment,omitempty"`

	// TestCommand is the local test command run during preflight.
	// Executed via "sh -c". Empty disables the check.
	TestCommand string `json:"test_command,omitempty"`

	// RequiredFiles are the platform descriptor files that must exist
	// before a deploy is triggered.
	RequiredFiles []string `json:"required_files,omitempty"`

	// StateDir is where deploy records are written (default ".shipctl").
	StateDir string `json:"state_dir,omitempty"`
}

// Defaults fills zero-valued fields with their defaults.
func (c *Config) Defaults() {
	if c.Tool == "" {
		c.Tool = "railway"
	}
	if c.TestCommand == "" {
		c.TestCommand = "npm test"
	}
	if len(c.RequiredFiles) == 0 {
		c.RequiredFiles = []string{"package.json"}
	}
	if c.StateDir == "" {
		c.StateDir = ".shipctl"
	}
}

// Path returns the path to the config file: the override if set,
// otherwise shipctl.json in the current working directory.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine working directory: %w", err)
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config file, applies defaults, and applies environment
// overrides. A missing file yields a default Config (not an error);
// preflight decides whether anything mandatory is absent.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	cfg.Defaults()

	if v := os.Getenv(EnvTargetURL); v != "" {
		cfg.TargetURL = v
	}
	if v := os.Getenv(EnvTool); v != "" {
		cfg.Tool = v
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the parent directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to the given path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}

	return nil
}
