// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/loglens/internal/errors"
	"github.com/kraklabs/loglens/internal/output"
	"github.com/kraklabs/loglens/internal/ui"
	"github.com/kraklabs/loglens/pkg/ingest"
	"github.com/kraklabs/loglens/pkg/parser"
	"github.com/kraklabs/loglens/pkg/store"
)

// runConvert executes the 'convert' CLI command, ingesting conversation
// logs into the database.
//
// It discovers *.jsonl files under the configured log directory, skips the
// ones whose content fingerprint is unchanged, parses the rest with the
// per-tool parsers, and replaces their messages in the database.
//
// Flags:
//   - --full: Re-ingest every file, ignoring fingerprints (default: false)
//   - --tool: Force a parser: claude, copilot, chatgpt (default: auto)
//   - --max-files: Cap how many files to process, 0 is unlimited
//   - --from/--to: Only files modified within the date range (YYYY-MM-DD)
//   - --export-md: Also export markdown transcripts to the output directory
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//
// Examples:
//
//	loglens convert                  Incremental ingest (changed files only)
//	loglens convert --full           Re-ingest everything
//	loglens convert --tool claude    Force the Claude parser
//	loglens convert --from 2025-03-01 --to 2025-03-31
func runConvert(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	full := fs.Bool("full", false, "Re-ingest every file, ignoring fingerprints")
	tool := fs.String("tool", "", "Force a parser: claude, copilot, chatgpt")
	maxFiles := fs.Int("max-files", -1, "Cap how many files to process (-1 uses config, 0 is unlimited)")
	fromDate := fs.String("from", "", "Only files modified on or after this date (YYYY-MM-DD)")
	toDate := fs.String("to", "", "Only files modified on or before this date (YYYY-MM-DD)")
	exportMD := fs.Bool("export-md", false, "Also export markdown transcripts")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loglens convert [options]

Ingests conversation logs using configuration from .loglens/config.yaml.
Unchanged files are skipped unless --full is given.

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

	logger := newLogger(globals)
	slog.SetDefault(logger)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn("metrics.server.error", "err", err)
			}
		}()
	}

	forcedTool, err := resolveTool(*tool, cfg.ToolType)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	discoverOpts, err := buildDiscoverOptions(cfg, *fromDate, *toDate, *maxFiles)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	files, err := ingest.Discover(cfg.LogDirectory, discoverOpts)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError(
			"Log directory not found",
			fmt.Sprintf("Cannot scan %s", cfg.LogDirectory),
			"Check log_directory in .loglens/config.yaml or pass --config",
		), globals.JSON)
	}
	if len(files) == 0 {
		errors.FatalError(errors.NewNotFoundError(
			"No .jsonl log files found",
			fmt.Sprintf("Nothing to ingest under %s", cfg.LogDirectory),
			"Check log_directory in .loglens/config.yaml or loosen --from/--to",
		), globals.JSON)
	}

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open conversation database",
			fmt.Sprintf("Opening %s failed", cfg.DatabasePath),
			"Close other loglens instances or run: loglens reset --yes",
			err,
		), globals.JSON)
	}
	defer s.Close()

	progress := NewProgressConfig(globals)
	bar := NewProgressBar(progress, int64(len(files)), "Ingesting logs")

	pipeline := ingest.NewPipeline(s, logger)
	result, err := pipeline.Run(context.Background(), files, ingest.Options{
		SkipUnchanged: cfg.SkipUnchanged && !*full,
		Tool:          forcedTool,
		OnFileStart: func(string) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if *exportMD {
		exportMarkdown(cfg, s, result, globals)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{
			"processed":      result.Processed,
			"skipped":        result.Skipped,
			"failed":         result.Failed,
			"messages_added": result.MessagesAdded,
			"duration_ms":    result.Duration.Milliseconds(),
		})
	} else {
		ui.Successf("Processed %d files (%d skipped, %d failed) in %s",
			result.Processed, result.Skipped, result.Failed, result.Duration.Round(time.Millisecond))
		if result.MessagesAdded > 0 {
			fmt.Printf("  %s %s\n", ui.Label("Messages added:"), ui.CountText(result.MessagesAdded))
		}
		for _, fr := range result.Files {
			if fr.Err != nil {
				ui.Warningf("Failed %s: %v", filepath.Base(fr.Path), fr.Err)
			}
		}
	}

	if code := convertExitCode(result); code != errors.ExitSuccess {
		os.Exit(code)
	}
}

// convertExitCode maps an ingest result to the process exit code. A run
// where every attempted file failed to parse exits non-zero; partial
// failures and all-skipped runs exit zero.
func convertExitCode(result ingest.Result) int {
	if result.Processed == 0 && result.Failed > 0 {
		return errors.ExitInput
	}
	return errors.ExitSuccess
}

// resolveTool validates the --tool flag against the known parsers, falling
// back to the configured tool_type.
func resolveTool(flagTool, cfgTool string) (parser.Tool, error) {
	name := flagTool
	if name == "" {
		name = cfgTool
	}
	switch parser.Tool(name) {
	case "", parser.ToolClaude, parser.ToolCopilot, parser.ToolChatGPT:
		return parser.Tool(name), nil
	}
	return "", errors.NewInputError(
		"Unknown tool type",
		fmt.Sprintf("%q is not a supported parser", name),
		"Use one of: claude, copilot, chatgpt",
	)
}

// buildDiscoverOptions merges config dates with command-line overrides.
func buildDiscoverOptions(cfg Config, fromDate, toDate string, maxFiles int) (ingest.DiscoverOptions, error) {
	opts := ingest.DiscoverOptions{MaxFiles: cfg.MaxFiles}
	if maxFiles >= 0 {
		opts.MaxFiles = maxFiles
	}

	if fromDate == "" {
		fromDate = cfg.StartDate
	}
	if toDate == "" {
		toDate = cfg.EndDate
	}

	if fromDate != "" {
		t, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return opts, errors.NewInputError(
				"Invalid date filter",
				fmt.Sprintf("%q is not a valid date", fromDate),
				"Use YYYY-MM-DD, like 2025-03-01",
			)
		}
		opts.After = t
	}
	if toDate != "" {
		t, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return opts, errors.NewInputError(
				"Invalid date filter",
				fmt.Sprintf("%q is not a valid date", toDate),
				"Use YYYY-MM-DD, like 2025-03-01",
			)
		}
		// Inclusive upper bound covers the whole day.
		opts.Before = t.Add(24*time.Hour - time.Nanosecond)
	}
	return opts, nil
}

// exportMarkdown writes transcripts for every file the run processed.
func exportMarkdown(cfg Config, s *store.Store, result ingest.Result, globals GlobalFlags) {
	ctx := context.Background()
	exported := 0
	for _, fr := range result.Files {
		if fr.Err != nil || fr.Skipped || fr.Messages == 0 {
			continue
		}
		msgs, _, err := s.MessagesByFile(ctx, filepath.Base(fr.Path), 1, fr.Messages)
		if err != nil {
			ui.Warningf("Export failed for %s: %v", filepath.Base(fr.Path), err)
			continue
		}
		info, err := os.Stat(fr.Path)
		if err != nil {
			continue
		}
		out := filepath.Join(cfg.OutputDirectory, ingest.OutputFilename(fr.Path, info.ModTime()))
		if err := ingest.WriteMarkdown(out, fr.Path, msgs); err != nil {
			ui.Warningf("Export failed for %s: %v", filepath.Base(fr.Path), err)
			continue
		}
		exported++
	}
	if !globals.Quiet && exported > 0 {
		ui.Successf("Exported %d markdown transcripts to %s", exported, cfg.OutputDirectory)
	}
}

// newLogger builds the slog logger for CLI commands.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	if globals.Verbose > 0 {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
