// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"path/filepath"
	"strings"
)

// keyword sets scored against sampled content during detection. Lines are
// lowercased before matching, so keywords stay lowercase too. Each hit
// counts once per line; the tool with the highest total wins.
var detectKeywords = map[Tool][]string{
	ToolClaude:  {"claude", "anthropic", "usertype", "tooluseresult"},
	ToolCopilot: {"copilot", "github.copilot", "vscode"},
	ToolChatGPT: {"chatgpt", "openai", "gpt-4", "gpt-3.5", "choices"},
}

// Detect resolves the tool for the file at path. An override short-circuits
// everything. Otherwise the path is matched against per-tool location
// conventions, and as a last resort the first lines of content are scored
// against keyword sets. Unreadable or unmatchable files come back unknown.
func Detect(path string, override Tool) Tool {
	if override != "" && override != ToolUnknown {
		return override
	}
	if tool := detectByPath(path); tool != ToolUnknown {
		return tool
	}
	return detectByContent(path)
}

func detectByPath(path string) Tool {
	lower := strings.ToLower(filepath.ToSlash(path))
	switch {
	case strings.Contains(lower, ".claude/projects"), strings.Contains(lower, "claude"):
		return ToolClaude
	case strings.Contains(lower, "copilot"):
		return ToolCopilot
	case strings.Contains(lower, "chatgpt"), strings.Contains(lower, "openai"):
		return ToolChatGPT
	}
	return ToolUnknown
}

func detectByContent(path string) Tool {
	lines := sampleLines(path, 10)
	if len(lines) == 0 {
		return ToolUnknown
	}

	scores := make(map[Tool]int, len(detectKeywords))
	for _, line := range lines {
		lower := strings.ToLower(line)
		for tool, keywords := range detectKeywords {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					scores[tool]++
				}
			}
		}
	}

	best := ToolUnknown
	bestScore := 0
	// Fixed visit order keeps ties deterministic.
	for _, tool := range []Tool{ToolClaude, ToolCopilot, ToolChatGPT} {
		if scores[tool] > bestScore {
			best, bestScore = tool, scores[tool]
		}
	}
	return best
}
