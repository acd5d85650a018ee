package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmcdole/azspray/pkg/aad"
	"github.com/mmcdole/azspray/pkg/logging"
	"github.com/mmcdole/azspray/pkg/spray"
	"github.com/mmcdole/azspray/pkg/status"
)

// Config holds the spray configuration
type Config struct {
	// Target settings
	BaseURL   string `json:"base_url,omitempty"`   // Token endpoint host, e.g. a relay in front of login.microsoft.com
	Cloud     string `json:"cloud,omitempty"`      // public, china or usgov; used when base_url is empty
	Domain    string `json:"domain,omitempty"`     // Appended to usernames without an @
	UserAgent string `json:"user_agent,omitempty"` // User-Agent sent with every attempt
	Timeout   int    `json:"timeout"`              // Per-request timeout in seconds

	// Spray behaviour
	Workers         int  `json:"workers"`                     // Concurrent attempts
	UserAsPassword  bool `json:"user_as_password,omitempty"`  // Try each username as its own password first
	ContinueOnError bool `json:"continue_on_error,omitempty"` // Keep going after a transport failure
	ConfirmUsers    bool `json:"confirm_users,omitempty"`     // Read a password mismatch as proof the account exists

	// Logging and monitoring
	Verbosity        int    `json:"verbosity,omitempty"`    // 0 warn, 1 info, 2 debug
	LogLevel         string `json:"log_level,omitempty"`    // debug, info, warn or error; wins over verbosity
	LogFile          string `json:"log_file,omitempty"`     // Optional: diagnostics go here instead of stderr
	MetricsAddr      string `json:"metrics_addr,omitempty"` // Optional: serve Prometheus metrics on this address
	ProgressInterval int    `json:"progress_interval"`      // Seconds between progress log lines
	StatusFile       string `json:"status_file,omitempty"`  // Optional: counters snapshot rewritten every progress interval
}

// DefaultConfig returns the settings used when no config file is given
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = aad.DefaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = int(aad.DefaultTimeout.Seconds())
	}
	if c.Workers == 0 {
		c.Workers = spray.DefaultWorkers
	}
	if c.ProgressInterval == 0 {
		c.ProgressInterval = int(status.DefaultInterval.Seconds())
	}
}

// Validate rejects settings that cannot start a spray
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", c.Timeout)
	}
	if c.ProgressInterval < 1 {
		return fmt.Errorf("progress interval must be at least 1 second, got %d", c.ProgressInterval)
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity must not be negative, got %d", c.Verbosity)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the diagnostic log level: log_level when set, otherwise the
// level selected by verbosity
func (c *Config) Level() (logging.LogLevel, error) {
	if c.LogLevel != "" {
		return logging.ParseLevel(c.LogLevel)
	}
	return logging.LevelFromVerbosity(c.Verbosity), nil
}

// ResolveBaseURL returns the explicit base URL, or the login host of the
// configured cloud. With neither set this is aad.DefaultBaseURL.
func (c *Config) ResolveBaseURL() (string, error) {
	if c.BaseURL != "" {
		return c.BaseURL, nil
	}
	return aad.BaseURLForCloud(c.Cloud)
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	// Relative output paths are relative to the config file
	configDir := filepath.Dir(path)
	if config.LogFile != "" && !filepath.IsAbs(config.LogFile) {
		config.LogFile = filepath.Join(configDir, config.LogFile)
	}
	if config.StatusFile != "" && !filepath.IsAbs(config.StatusFile) {
		config.StatusFile = filepath.Join(configDir, config.StatusFile)
	}

	config.applyDefaults()
	return nil
}
