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

// Package extract pulls display text out of tool-native message payloads.
//
// Assistant logs store message content either as a plain string or as a
// sequence of typed parts (text blocks, tool invocations). Content flattens
// either shape to a single string; Clean strips command/system markup the
// assistants inject around user prompts.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Content flattens a tool-native message payload to a single string.
//
// The argument may be the whole message object or its bare content value.
// A plain string content is returned unchanged. A part list is joined with
// newlines in original order: "text" parts contribute their literal text,
// "tool_use" parts contribute a marker block with the tool name and its
// input pretty-printed as JSON. Anything unrecognized falls back to a
// string rendering of the payload; Content never fails.
func Content(message any) string {
	switch v := message.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			part, ok := item.(map[string]any)
			if !ok {
				continue
			}
			switch part["type"] {
			case "text":
				text, _ := part["text"].(string)
				parts = append(parts, text)
			case "tool_use":
				parts = append(parts, toolUseBlock(part))
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		if content, ok := v["content"]; ok {
			return Content(content)
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func toolUseBlock(part map[string]any) string {
	name, _ := part["name"].(string)
	if name == "" {
		name = "unknown"
	}
	input := part["input"]
	if input == nil {
		input = map[string]any{}
	}
	pretty, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		pretty = []byte(fmt.Sprint(input))
	}
	return fmt.Sprintf("[Tool: %s]\n```json\n%s\n```", name, pretty)
}

// Markup regions removed wholesale by Clean. Matching is non-greedy across
// newlines, case-sensitive, non-overlapping.
var markupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<command-message>.*?</command-message>`),
	regexp.MustCompile(`(?s)<command-name>.*?</command-name>`),
	regexp.MustCompile(`(?s)<command-args>.*?</command-args>`),
	regexp.MustCompile(`(?s)<system-reminder>.*?</system-reminder>`),
}

var blankRuns = regexp.MustCompile(`\n\s*\n\s*\n`)

// Clean removes injected markup regions, collapses runs of three or more
// blank-ish lines to a single blank line, and trims surrounding whitespace.
// Clean is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	if text == "" {
		return ""
	}

	for _, re := range markupPatterns {
		text = re.ReplaceAllString(text, "")
	}

	// A single pass can leave a shorter run that still matches; iterate to
	// a fixed point so cleaning already-clean text is a no-op.
	for {
		collapsed := blankRuns.ReplaceAllString(text, "\n\n")
		if collapsed == text {
			break
		}
		text = collapsed
	}

	return strings.TrimSpace(text)
}
