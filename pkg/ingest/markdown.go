// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/loglens/pkg/parser"
)

// display zone for export filenames, same fixed +9h offset the parsers use.
var exportZone = time.FixedZone("UTC+9", 9*60*60)

// OutputFilename derives the markdown export name for a source log file
// from its mtime and base name: log_20250301_093000_session.md.
func OutputFilename(sourcePath string, mtime time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	stamp := mtime.In(exportZone).Format("20060102_150405")
	return fmt.Sprintf("log_%s_%s.md", stamp, stem)
}

// WriteMarkdown renders msgs as a transcript and writes it to outPath,
// creating parent directories as needed.
func WriteMarkdown(outPath string, source string, msgs []parser.Message) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation Log: %s\n\n", filepath.Base(source))
	fmt.Fprintf(&b, "Messages: %d\n\n---\n\n", len(msgs))

	for _, m := range msgs {
		fmt.Fprintf(&b, "## %s (%s)\n\n", roleHeading(m.Role), m.Timestamp)
		b.WriteString(m.Content)
		b.WriteString("\n\n---\n\n")
	}

	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write markdown export: %w", err)
	}
	return nil
}

func roleHeading(role string) string {
	switch role {
	case parser.RoleUser:
		return "User"
	case parser.RoleAssistant:
		return "Assistant"
	case parser.RoleSystem:
		return "System"
	default:
		return role
	}
}
