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
)

// runStatus executes the 'status' CLI command, showing database statistics.
//
// Examples:
//
//	loglens status                 Human-readable status
//	loglens status --json          Machine-readable status
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loglens status

Shows conversation database statistics: file and message counts, database
size, the covered date range, and the most recently parsed files.
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

	ctx := context.Background()
	stats, err := s.Stats(ctx)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot read database statistics",
			"Querying the conversation database failed",
			"Run 'loglens convert' to rebuild the database",
			err,
		), globals.JSON)
	}
	earliest, latest, hasRange, err := s.DateRange(ctx)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		payload := map[string]any{
			"database_path": cfg.DatabasePath,
			"stats":         stats,
		}
		if hasRange {
			payload["earliest"] = earliest
			payload["latest"] = latest
		}
		_ = output.JSON(payload)
		return
	}

	ui.Header("Loglens Status")
	fmt.Printf("%s %s\n", ui.Label("Database:"), ui.DimText(cfg.DatabasePath))
	fmt.Printf("%s %s\n", ui.Label("Files:"), ui.CountText(stats.FileCount))
	fmt.Printf("%s %s\n", ui.Label("Messages:"), ui.CountText(stats.MessageCount))
	fmt.Printf("%s %.2f MB\n", ui.Label("Size:"), stats.DBSizeMB)
	if hasRange {
		fmt.Printf("%s %s to %s\n", ui.Label("Dates:"), earliest, latest)
	}

	if len(stats.RecentFiles) > 0 {
		fmt.Println()
		ui.SubHeader("Recent files:")
		for _, f := range stats.RecentFiles {
			fmt.Printf("  %s  %s messages\n", f.Filename, ui.CountText(f.MessageCount))
		}
	}
}
