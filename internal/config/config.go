// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Default settings applied before command-line flags
	Defaults struct {
		Format  string `yaml:"format"`
		Pretty  bool   `yaml:"pretty"`
		Indent  int    `yaml:"indent"`
		Workers int    `yaml:"workers"`
		Verbose bool   `yaml:"verbose"`
		Debug   bool   `yaml:"debug"`
		NoColor bool   `yaml:"no_color"`
	} `yaml:"defaults"`

	// Profiles for different scoring scenarios
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile represents a named set of overrides for a scoring scenario
type Profile struct {
	Format      string `yaml:"format"`
	Pretty      bool   `yaml:"pretty"`
	Indent      int    `yaml:"indent"`
	Workers     int    `yaml:"workers"`
	Verbose     bool   `yaml:"verbose"`
	Debug       bool   `yaml:"debug"`
	NoColor     bool   `yaml:"no_color"`
	Description string `yaml:"description"`
}

// LoadConfig loads configuration from the given path, layering the file's
// contents over built-in defaults. An empty path returns the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: make(map[string]Profile),
	}

	config.Defaults.Format = "json"
	config.Defaults.Pretty = false
	config.Defaults.Indent = 0
	config.Defaults.Workers = 0
	config.Defaults.Verbose = false
	config.Defaults.Debug = false
	config.Defaults.NoColor = false

	config.Profiles["ci"] = Profile{
		Format:      "json",
		NoColor:     true,
		Description: "Compact JSON output for pipelines and batch evaluation",
	}

	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads the config file if one is found, otherwise
// returns the built-in defaults.
func LoadConfigOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = FindConfigFile()
	}
	return LoadConfig(configPath)
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	// Check current directory first
	if fileExists("clause-scan.yaml") {
		return "clause-scan.yaml"
	}
	if fileExists("clause-scan.yml") {
		return "clause-scan.yml"
	}

	// Project-specific config
	if fileExists(".clause-scan.yaml") {
		return ".clause-scan.yaml"
	}
	if fileExists(".clause-scan.yml") {
		return ".clause-scan.yml"
	}

	// Environment override
	if envPath := os.Getenv("CLAUSE_SCAN_CONFIG"); envPath != "" {
		if fileExists(envPath) {
			return envPath
		}
	}

	// Standard per-user location
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".clause-scan", "config.yaml")
		if fileExists(candidate) {
			return candidate
		}
	}

	return ""
}

// ValidateConfig checks the configuration for invalid values
func ValidateConfig(config *Config) error {
	if config.Defaults.Workers < 0 {
		return fmt.Errorf("defaults.workers must not be negative, got %d", config.Defaults.Workers)
	}
	if config.Defaults.Indent < 0 {
		return fmt.Errorf("defaults.indent must not be negative, got %d", config.Defaults.Indent)
	}
	for name, profile := range config.Profiles {
		if profile.Workers < 0 {
			return fmt.Errorf("profile %q: workers must not be negative, got %d", name, profile.Workers)
		}
		if profile.Indent < 0 {
			return fmt.Errorf("profile %q: indent must not be negative, got %d", name, profile.Indent)
		}
	}
	return nil
}

// ListProfiles returns the names of all available profiles
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	return profiles
}

// GetProfile returns a profile by name, or nil if it doesn't exist
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ApplyProfile overlays a named profile onto the defaults
func (c *Config) ApplyProfile(name string) error {
	profile := c.GetProfile(name)
	if profile == nil {
		return fmt.Errorf("unknown profile: %s", name)
	}
	if profile.Format != "" {
		c.Defaults.Format = profile.Format
	}
	if profile.Indent != 0 {
		c.Defaults.Indent = profile.Indent
	}
	if profile.Workers != 0 {
		c.Defaults.Workers = profile.Workers
	}
	c.Defaults.Pretty = c.Defaults.Pretty || profile.Pretty
	c.Defaults.Verbose = c.Defaults.Verbose || profile.Verbose
	c.Defaults.Debug = c.Defaults.Debug || profile.Debug
	c.Defaults.NoColor = c.Defaults.NoColor || profile.NoColor
	return nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
