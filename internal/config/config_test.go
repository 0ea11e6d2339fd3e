// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Format != "json" {
		t.Errorf("expected default format=json, got %q", cfg.Defaults.Format)
	}
	if cfg.Defaults.Workers != 0 {
		t.Errorf("expected default workers=0, got %d", cfg.Defaults.Workers)
	}
	if cfg.GetProfile("ci") == nil {
		t.Error("expected built-in ci profile")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
defaults:
  format: yaml
  pretty: true
  workers: 8
profiles:
  review:
    format: text
    verbose: true
    description: Verbose text output for manual review
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Format != "yaml" || !cfg.Defaults.Pretty || cfg.Defaults.Workers != 8 {
		t.Errorf("unexpected defaults: %+v", cfg.Defaults)
	}
	profile := cfg.GetProfile("review")
	if profile == nil || profile.Format != "text" || !profile.Verbose {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte(":::invalid yaml:::"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfig_NegativeWorkersRejected(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("defaults:\n  workers: -2\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected validation error for negative workers")
	}
}

func TestApplyProfile(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Profiles["batch"] = Profile{Format: "yaml", Workers: 16, NoColor: true}

	if err := cfg.ApplyProfile("batch"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Format != "yaml" || cfg.Defaults.Workers != 16 || !cfg.Defaults.NoColor {
		t.Errorf("profile not applied: %+v", cfg.Defaults)
	}

	if err := cfg.ApplyProfile("missing"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestLoadConfigOrDefault_NonexistentPath(t *testing.T) {
	if _, err := LoadConfigOrDefault("/nonexistent/path.yaml"); err == nil {
		t.Error("expected error for explicit nonexistent path")
	}
}
