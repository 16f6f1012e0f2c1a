package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "shipctl.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Config{
		Tool:          "railway",
		TestCommand:   "npm test",
		RequiredFiles: []string{"package.json"},
		StateDir:      ".shipctl",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shipctl.json")

	cfg := &Config{
		Tool:          "railway",
		TargetURL:     "https://api.example.com",
		Environment:   "production",
		TestCommand:   "go test ./...",
		RequiredFiles: []string{"package.json", "railway.toml"},
		StateDir:      ".shipctl",
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvTargetURL, "https://staging.example.com")
	t.Setenv(EnvTool, "flyctl")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "shipctl.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TargetURL != "https://staging.example.com" {
		t.Errorf("TargetURL = %q, want env override", cfg.TargetURL)
	}
	if cfg.Tool != "flyctl" {
		t.Errorf("Tool = %q, want env override", cfg.Tool)
	}
}

func TestLoadFromPartialFileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipctl.json")
	cfg := &Config{TargetURL: "https://api.example.com"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Tool != "railway" {
		t.Errorf("Tool = %q, want default", loaded.Tool)
	}
	if loaded.TargetURL != "https://api.example.com" {
		t.Errorf("TargetURL = %q, want value from file", loaded.TargetURL)
	}
}
