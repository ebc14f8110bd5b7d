// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/loglens/internal/errors"
	"github.com/kraklabs/loglens/internal/output"
	"github.com/kraklabs/loglens/internal/ui"
)

// runReset executes the 'reset' CLI command, clearing every ingested file
// and message from the database. The next convert run re-ingests from
// scratch.
//
// Flags:
//   - --yes: Skip the confirmation prompt
//
// Examples:
//
//	loglens reset                  Prompt, then clear the database
//	loglens reset --yes            Clear without prompting
func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loglens reset [options]

Clears all ingested files and messages from the conversation database.
This cannot be undone. The log files themselves are never touched.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if !*yes {
		fmt.Printf("This clears all ingested data in %s. Continue? [y/N] ", cfg.DatabasePath)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			os.Exit(errors.ExitSuccess)
		}
	}

	s, err := openExistingStore(cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer s.Close()

	if err := s.ClearAll(context.Background()); err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot clear the conversation database",
			"Deleting ingested rows failed",
			"Close other loglens instances and retry",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{"cleared": true})
		return
	}
	ui.Success("Database cleared")
}
