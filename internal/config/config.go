// Package config holds edops configuration: where the metadata tree lives,
// which repository the GitHub collaborator targets, and the review/image
// check tunables. Config is YAML on disk with environment overrides applied
// after load.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all edops configuration.
type Config struct {
	Metadata MetadataConfig `yaml:"metadata"`
	GitHub   GitHubConfig   `yaml:"github"`
	Review   ReviewConfig   `yaml:"review"`
	Images   ImagesConfig   `yaml:"images"`
}

// MetadataConfig locates the metadata store.
type MetadataConfig struct {
	Dir string `yaml:"dir"`
}

// GitHubConfig configures the collaborator client. Token normally arrives via
// the GITHUB_TOKEN environment variable, not the file.
type GitHubConfig struct {
	Owner   string        `yaml:"owner"`
	Repo    string        `yaml:"repo"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReviewConfig configures the slot timeout sweep.
type ReviewConfig struct {
	TimeoutDays int `yaml:"timeout_days"`
}

// ImagesConfig configures markdown image validation.
type ImagesConfig struct {
	Timeout            time.Duration `yaml:"timeout"`
	BlacklistedDomains []string      `yaml:"blacklisted_domains"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Metadata: MetadataConfig{Dir: "metadata"},
		GitHub: GitHubConfig{
			Owner:   "Journal-of-Nothing",
			Repo:    "journal-data-test",
			Timeout: 10 * time.Second,
		},
		Review: ReviewConfig{TimeoutDays: 14},
		Images: ImagesConfig{
			Timeout: 3 * time.Second,
			BlacklistedDomains: []string{
				"spam.io",
				"malicious-host.com",
				"unsafe-cdn.net",
			},
		},
	}
}

// Load reads a config file over the defaults and applies env overrides. A
// missing file is not an error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	if dir := os.Getenv("EDOPS_METADATA_DIR"); dir != "" {
		c.Metadata.Dir = dir
	}
}
