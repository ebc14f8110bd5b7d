// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/loglens/internal/errors"
)

// configDir is the per-project configuration directory.
const configDir = ".loglens"

// Config is the on-disk configuration at .loglens/config.yaml.
type Config struct {
	// LogDirectory is the root scanned for *.jsonl conversation logs.
	LogDirectory string `yaml:"log_directory"`

	// OutputDirectory receives markdown transcript exports.
	OutputDirectory string `yaml:"output_directory"`

	// DatabasePath is the SQLite conversation database location.
	DatabasePath string `yaml:"database_path"`

	// MaxFiles caps how many files one convert run processes, 0 is
	// unlimited.
	MaxFiles int `yaml:"max_files"`

	// SkipUnchanged skips files whose fingerprint matches the database.
	SkipUnchanged bool `yaml:"skip_unchanged"`

	// ToolType forces a parser for every file: claude, copilot, chatgpt.
	// Empty means auto-detect per file.
	ToolType string `yaml:"tool_type"`

	// StartDate and EndDate bound ingestion by file mtime, YYYY-MM-DD,
	// both inclusive when set.
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`

	// ServeAddr is the viewer server listen address.
	ServeAddr string `yaml:"serve_addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	logDir := "~/.claude/projects"
	if home, err := os.UserHomeDir(); err == nil {
		logDir = filepath.Join(home, ".claude", "projects")
	}
	return Config{
		LogDirectory:    logDir,
		OutputDirectory: "converted_logs",
		DatabasePath:    filepath.Join(configDir, "conversations.db"),
		MaxFiles:        10,
		SkipUnchanged:   true,
		ServeAddr:       ":5000",
	}
}

// ConfigPath returns the configuration file path under dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, configDir, "config.yaml")
}

// LoadConfig reads the configuration at path, or the default location when
// path is empty. A missing file yields the defaults, a malformed one is a
// config error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("get working directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, errors.NewConfigError(
			"Cannot read loglens configuration",
			fmt.Sprintf("Reading %s failed", path),
			"Check file permissions or run 'loglens init' to recreate it",
			err,
		)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.NewConfigError(
			"Cannot parse loglens configuration",
			fmt.Sprintf("The file %s is not valid YAML", path),
			"Fix the file or run 'loglens init --force' to recreate it",
			err,
		)
	}
	return cfg, nil
}

// WriteConfig writes cfg as YAML to path, creating parent directories.
func WriteConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
