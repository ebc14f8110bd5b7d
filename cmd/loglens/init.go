// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/loglens/internal/errors"
	"github.com/kraklabs/loglens/internal/output"
	"github.com/kraklabs/loglens/internal/ui"
)

// runInit executes the 'init' CLI command, creating .loglens/config.yaml.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - --log-dir: Log directory to scan (default: ~/.claude/projects)
//   - --output-dir: Markdown export directory (default: converted_logs)
//
// Examples:
//
//	loglens init                       Create configuration with defaults
//	loglens init --log-dir ./logs      Point at a custom log directory
//	loglens init --force               Overwrite an existing configuration
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	logDir := fs.String("log-dir", "", "Log directory to scan for .jsonl files")
	outputDir := fs.String("output-dir", "", "Directory for markdown exports")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loglens init [options]

Creates .loglens/config.yaml in the current directory with sensible
defaults. Existing configuration is preserved unless --force is given.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !*force {
		errors.FatalError(errors.NewInputError(
			"Configuration already exists",
			fmt.Sprintf("%s is already present", configPath),
			"Use --force to overwrite it",
		), globals.JSON)
	}

	cfg := DefaultConfig()
	if *logDir != "" {
		cfg.LogDirectory = *logDir
	}
	if *outputDir != "" {
		cfg.OutputDirectory = *outputDir
	}

	if err := WriteConfig(configPath, cfg); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot write configuration",
			fmt.Sprintf("Writing %s failed", configPath),
			"Check directory permissions",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{"config_path": configPath, "created": true})
		return
	}

	ui.Successf("Created %s", configPath)
	fmt.Printf("  %s %s\n", ui.Label("Log directory:"), ui.DimText(cfg.LogDirectory))
	fmt.Printf("  %s %s\n", ui.Label("Database:"), ui.DimText(cfg.DatabasePath))
	fmt.Println()
	ui.Info("Next: run 'loglens convert' to ingest your logs")
}
