// ============================================================================
// Taskloom CLI - Configuration
// ============================================================================
//
// Package: internal/cli
// File: config.go
// Purpose: YAML-backed configuration, mirroring the teacher's Config/
// loadConfig shape (internal/cli/cli.go) with the persistence/distributed
// sections (WAL, Snapshot) dropped and an executor section added in their
// place.
//
// ============================================================================

package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete CLI configuration structure, loaded from YAML.
type Config struct {
	Executor struct {
		WorkerCount int `yaml:"worker_count"`
		QueueBuffer int `yaml:"queue_buffer"`
	} `yaml:"executor"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

// defaultConfig returns the configuration used when no config file is
// given or the file cannot be found, so the demo commands work with zero
// setup.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Executor.WorkerCount = 4
	cfg.Executor.QueueBuffer = 64
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9090
	return cfg
}

func loadConfig(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return cfg, nil
}
