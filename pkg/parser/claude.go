// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"encoding/json"
	"strings"

	"github.com/kraklabs/loglens/pkg/extract"
)

// ClaudeParser handles the Claude Code session log schema: one JSON object
// per line with a nested message payload whose content is either a plain
// string or a list of typed parts.
type ClaudeParser struct{}

func NewClaudeParser() *ClaudeParser { return &ClaudeParser{} }

func (p *ClaudeParser) Tool() Tool { return ToolClaude }

// CanParse accepts a file when any sampled line is a JSON object carrying
// the schema's signature keys.
func (p *ClaudeParser) CanParse(path string) bool {
	for _, line := range sampleLines(path, 10) {
		var record map[string]any
		if json.Unmarshal([]byte(line), &record) != nil {
			continue
		}
		// The schema always nests the message payload as an object.
		if _, ok := record["message"].(map[string]any); ok {
			return true
		}
		if _, ok := record["userType"]; ok {
			return true
		}
		if t, ok := record["type"].(string); ok && t == "summary" {
			return true
		}
	}
	return false
}

func (p *ClaudeParser) ParseLine(line string) (Message, bool) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return Message{}, false
	}

	// Session summary records carry no message payload. They are kept as
	// system entries so the transcript shows where a session was compacted.
	if t, _ := record["type"].(string); t == "summary" {
		summary, _ := record["summary"].(string)
		summary = strings.TrimSpace(summary)
		if summary == "" {
			return Message{}, false
		}
		ts, _ := record["timestamp"].(string)
		return Message{
			Role:      RoleSystem,
			Timestamp: formatStamp(ts),
			Content:   summary,
			Tool:      ToolClaude,
		}, true
	}

	role := claudeRole(record)
	if role != RoleUser && role != RoleAssistant {
		return Message{}, false
	}

	var content string
	if msg, ok := record["message"].(map[string]any); ok {
		content = extract.Content(msg["content"])
	}
	content = extract.Clean(content)
	if content == "" {
		return Message{}, false
	}

	ts, _ := record["timestamp"].(string)
	return Message{
		Role:      role,
		Timestamp: formatStamp(ts),
		Content:   content,
		Tool:      ToolClaude,
	}, true
}

// claudeRole resolves the record's role: the nested message role wins, then
// the top-level userType, then the record type.
func claudeRole(record map[string]any) string {
	if msg, ok := record["message"].(map[string]any); ok {
		if role, ok := msg["role"].(string); ok && role != "" {
			return role
		}
	}
	if ut, ok := record["userType"].(string); ok && ut != "" {
		// userType "external" marks the human side of the session.
		if ut == "external" {
			return RoleUser
		}
		return ut
	}
	if t, ok := record["type"].(string); ok {
		return t
	}
	return ""
}
