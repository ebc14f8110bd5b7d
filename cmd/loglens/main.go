// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later
// Package main implements the loglens CLI for ingesting AI assistant
// conversation logs and serving them through the viewer.
//
// Usage:
//
//	loglens init                  Create .loglens/config.yaml configuration
//	loglens convert               Ingest logs into the conversation database
//	loglens serve                 Start the viewer server with live updates
//	loglens list [--json]         List ingested log files
//	loglens status [--json]       Show database status
//	loglens reset --yes           Clear all ingested data (destructive!)
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/loglens/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags carries the flags shared by every command.
type GlobalFlags struct {
	// JSON switches output to machine-readable JSON. Implies Quiet.
	JSON bool

	// Quiet suppresses progress bars and informational output.
	Quiet bool

	// NoColor disables colored terminal output.
	NoColor bool

	// Verbose raises log verbosity. 0 is info, 1+ is debug.
	Verbose int
}

// main is the entry point for the loglens CLI.
//
// It parses global flags and dispatches to command handlers.
//
// Global flags:
//   - --version: Display version information and exit
//   - --config: Path to .loglens/config.yaml configuration file
//   - --json: Machine-readable JSON output
//   - -q/--quiet: Suppress progress and informational output
//   - --no-color: Disable colored output
//   - -v: Increase verbosity (repeatable)
//
// Commands:
//   - init: Create .loglens/config.yaml configuration
//   - convert: Ingest conversation logs into the database
//   - serve: Start the viewer server with live updates
//   - list: List ingested log files
//   - status: Show database status
//   - reset: Clear all ingested data (destructive!)
func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .loglens/config.yaml (default: ./.loglens/config.yaml)")
		jsonOut     = flag.Bool("json", false, "Output as JSON")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress and informational output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (repeatable)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `loglens - AI conversation log viewer

loglens ingests the JSONL session logs written by AI coding assistants
(Claude Code, Copilot, ChatGPT exports), normalizes them into a searchable
database, and serves them through a local viewer with live updates.

Usage:
  loglens <command> [options]

Commands:
  init      Create .loglens/config.yaml configuration
  convert   Ingest conversation logs into the database
  serve     Start the viewer server with live updates
  list      List ingested log files
  status    Show database status
  reset     Clear all ingested data (destructive!)

Global Options:
  --config      Path to .loglens/config.yaml
  --json        Output as JSON
  -q, --quiet   Suppress progress and informational output
  --no-color    Disable colored output
  -v            Increase verbosity (repeatable)
  --version     Show version and exit

Examples:
  loglens init                       Create configuration with defaults
  loglens convert                    Ingest changed logs incrementally
  loglens convert --full             Re-ingest everything
  loglens convert --export-md        Also export markdown transcripts
  loglens serve                      Serve the viewer on :5000
  loglens list --json                List ingested files as JSON
  loglens reset --yes                Clear the database

Getting Started:
  1. Create configuration:   loglens init
  2. Ingest your logs:       loglens convert
  3. Start the viewer:       loglens serve

Data Storage:
  The conversation database lives at .loglens/conversations.db by default.

For detailed command help: loglens <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("loglens version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		JSON:    *jsonOut,
		Quiet:   *quiet || *jsonOut,
		NoColor: *noColor,
		Verbose: *verbose,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "convert":
		runConvert(cmdArgs, *configPath, globals)
	case "serve":
		runServe(cmdArgs, *configPath, globals)
	case "list":
		runList(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "reset":
		runReset(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
