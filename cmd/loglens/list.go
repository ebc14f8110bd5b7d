// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/loglens/internal/errors"
	"github.com/kraklabs/loglens/internal/output"
	"github.com/kraklabs/loglens/internal/ui"
	"github.com/kraklabs/loglens/pkg/store"
)

// runList executes the 'list' CLI command, listing ingested log files.
//
// Examples:
//
//	loglens list                   Human-readable file listing
//	loglens list --json            Machine-readable listing
func runList(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loglens list

Lists every ingested log file, most recently parsed first.
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	s, err := openExistingStore(cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer s.Close()

	files, err := s.FileList(context.Background())
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot list ingested files",
			"Querying the conversation database failed",
			"Run 'loglens convert' to rebuild the database",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{"files": files, "count": len(files)})
		return
	}

	if len(files) == 0 {
		ui.Warning("No files ingested yet. Run 'loglens convert' first.")
		return
	}

	ui.Header("Ingested Log Files")
	for _, f := range files {
		fmt.Printf("%s  %s messages  %s\n",
			ui.Label(f.Filename), ui.CountText(f.MessageCount), ui.DimText(string(f.Tool)))
	}
	fmt.Printf("\n%d files total\n", len(files))
}

// openExistingStore opens the configured database for read commands.
func openExistingStore(cfg Config) (*store.Store, error) {
	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, errors.NewDatabaseError(
			"Cannot open conversation database",
			fmt.Sprintf("Opening %s failed", cfg.DatabasePath),
			"Run 'loglens convert' first to create it",
			err,
		)
	}
	return s, nil
}
