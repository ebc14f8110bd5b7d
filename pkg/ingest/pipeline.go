// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/loglens/pkg/parser"
	"github.com/kraklabs/loglens/pkg/store"
)

// progressEvery is the line cadence for progress callbacks on large files.
const progressEvery = 100

// Options configures one pipeline run.
type Options struct {
	// SkipUnchanged skips files whose fingerprint matches the store.
	SkipUnchanged bool

	// Tool forces a parser variant for every file, bypassing detection.
	Tool parser.Tool

	// OnFileStart fires before each file is processed.
	OnFileStart func(path string)

	// OnProgress fires every progressEvery scanned lines of a file.
	OnProgress func(path string, lines int)
}

// FileResult records the outcome for one file.
type FileResult struct {
	Path     string
	Tool     parser.Tool
	Skipped  bool
	Messages int
	Err      error
}

// Result aggregates one pipeline run.
type Result struct {
	Processed     int
	Skipped       int
	Failed        int
	MessagesAdded int
	Duration      time.Duration
	Files         []FileResult
}

// Pipeline ingests log files into the store. One file failing never aborts
// the run; the failure lands in the result and the run moves on.
type Pipeline struct {
	store    *store.Store
	registry *parser.Registry
	detector *ChangeDetector
	logger   *slog.Logger
}

func NewPipeline(s *store.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    s,
		registry: parser.NewRegistry(),
		detector: NewChangeDetector(s),
		logger:   logger,
	}
}

// Run ingests files in order. Context cancellation stops the run between
// files and returns the partial result with the context error.
func (p *Pipeline) Run(ctx context.Context, files []string, opts Options) (Result, error) {
	start := time.Now()
	result := Result{Files: make([]FileResult, 0, len(files))}

	p.logger.Info("ingest.run.start", "file_count", len(files), "skip_unchanged", opts.SkipUnchanged)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		if opts.OnFileStart != nil {
			opts.OnFileStart(path)
		}

		fr := p.runFile(ctx, path, opts)
		result.Files = append(result.Files, fr)
		switch {
		case fr.Err != nil:
			result.Failed++
			recordFileFailed()
			p.logger.Warn("ingest.file.error", "path", path, "err", fr.Err)
		case fr.Skipped:
			result.Skipped++
			recordFileSkipped()
			p.logger.Debug("ingest.file.skipped", "path", path)
		default:
			result.Processed++
			result.MessagesAdded += fr.Messages
			recordFileProcessed()
			recordMessagesAdded(fr.Messages)
			p.logger.Info("ingest.file.complete", "path", path, "tool", fr.Tool, "messages", fr.Messages)
		}
	}

	result.Duration = time.Since(start)
	observeTotal(result.Duration.Seconds())
	p.logger.Info("ingest.run.complete",
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"messages_added", result.MessagesAdded,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (p *Pipeline) runFile(ctx context.Context, path string, opts Options) FileResult {
	fr := FileResult{Path: path}

	fpStart := time.Now()
	changed, fp, err := p.detector.Check(ctx, path)
	observeFingerprint(time.Since(fpStart).Seconds())
	if err != nil {
		fr.Err = err
		return fr
	}
	if opts.SkipUnchanged && !changed {
		fr.Skipped = true
		return fr
	}

	tool := parser.Detect(path, opts.Tool)
	pr := p.registry.Select(path, opts.Tool)
	if tool == parser.ToolUnknown {
		tool = pr.Tool()
	}
	fr.Tool = tool

	parseStart := time.Now()
	msgs, lines, err := p.parseFile(pr, path, opts)
	observeParse(time.Since(parseStart).Seconds())
	recordLinesParsed(lines)
	if err != nil {
		fr.Err = err
		return fr
	}

	storeStart := time.Now()
	_, err = p.store.ReplaceFileMessages(ctx, store.FileState{
		Path:         path,
		Hash:         fp.Hash,
		Size:         fp.Size,
		LastModified: fp.LastModified,
		Tool:         tool,
	}, msgs)
	observeStore(time.Since(storeStart).Seconds())
	if err != nil {
		fr.Err = err
		return fr
	}

	fr.Messages = len(msgs)
	return fr
}

// parseFile scans path line by line so progress callbacks can fire at a
// fixed cadence on large files.
func (p *Pipeline) parseFile(pr parser.Parser, path string, opts Options) ([]parser.Message, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	filename := filepath.Base(path)
	var msgs []parser.Message
	lines := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines++
		if opts.OnProgress != nil && lines%progressEvery == 0 {
			opts.OnProgress(path, lines)
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if msg, ok := pr.ParseLine(line); ok {
			msg.Filename = filename
			msgs = append(msgs, msg)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, lines, fmt.Errorf("scan log file: %w", err)
	}
	return msgs, lines, nil
}
