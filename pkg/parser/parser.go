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

// Package parser normalizes per-tool JSONL conversation logs into canonical
// message records.
//
// Each supported assistant writes its own line schema; one Parser variant
// exists per tool, all sharing the same contract: a line yields at most one
// Message, malformed lines are skipped, and no single bad line aborts a
// file. The Registry selects the variant for a file via manual override,
// path heuristics, or content sampling.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Tool identifies the assistant that produced a log file.
type Tool string

const (
	ToolClaude  Tool = "claude"
	ToolCopilot Tool = "copilot"
	ToolChatGPT Tool = "chatgpt"
	ToolUnknown Tool = "unknown"
)

// Roles retained in canonical messages. Anything else is filtered out
// rather than guessed at.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is the canonical record every parser variant produces.
type Message struct {
	// Role is one of user, assistant, or system (summary records).
	Role string `json:"role"`

	// Timestamp is the display timestamp rendered in the fixed civil
	// time zone as "2006-01-02 15:04:05".
	Timestamp string `json:"timestamp"`

	// Content is the extracted, cleaned text. Never empty: messages that
	// clean down to nothing are dropped before they become a Message.
	Content string `json:"content"`

	// Filename is the base name of the source log file.
	Filename string `json:"filename"`

	// Tool tags the producing assistant.
	Tool Tool `json:"tool_type"`
}

// Parser turns raw log lines of one tool's schema into canonical messages.
type Parser interface {
	// Tool returns the variant's tool tag.
	Tool() Tool

	// CanParse reports whether the file at path looks like this
	// variant's schema. It is a cheap structural self-test and may read
	// a few lines, never the whole file.
	CanParse(path string) bool

	// ParseLine converts one raw line into a message. The second return
	// is false when the line is malformed, carries a filtered-out role,
	// or cleans down to empty content.
	ParseLine(line string) (Message, bool)
}

// Display time zone for timestamps: a fixed +9h offset, matching the logs'
// consumers. Instants are reinterpreted here regardless of host zone.
var displayZone = time.FixedZone("UTC+9", 9*60*60)

const displayFormat = "2006-01-02 15:04:05"

// Now is the clock used for defaulted timestamps. Tests override it.
var Now = time.Now

// formatInstant renders t in the fixed display zone.
func formatInstant(t time.Time) string {
	return t.In(displayZone).Format(displayFormat)
}

// formatStamp parses an RFC 3339 timestamp and renders it in the display
// zone. Unparseable or empty input falls back to the current instant.
func formatStamp(ts string) string {
	if ts == "" {
		return formatInstant(Now())
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, ts); err != nil {
			return formatInstant(Now())
		}
	}
	return formatInstant(t)
}

// maxLineBytes bounds a single JSONL line. Assistant logs embed whole tool
// outputs in one line, so this is generous.
const maxLineBytes = 16 * 1024 * 1024

// newScanner returns a line scanner sized for large JSONL records.
func newScanner(f *os.File) *bufio.Scanner {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return sc
}

// ParseFile runs p over every line of the file at path. Blank lines and
// lines ParseLine rejects are skipped; one bad line never aborts the file.
func ParseFile(p Parser, path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var messages []Message
	sc := newScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if msg, ok := p.ParseLine(line); ok {
			msg.Filename = filepath.Base(path)
			messages = append(messages, msg)
		}
	}
	if err := sc.Err(); err != nil {
		return messages, fmt.Errorf("scan log file: %w", err)
	}
	return messages, nil
}

// sampleLines reads up to n lines from path for detection heuristics.
// Unreadable files yield an empty sample, never an error.
func sampleLines(path string, n int) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	sc := newScanner(f)
	for len(lines) < n && sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}
