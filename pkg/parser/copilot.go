// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"encoding/json"
	"strings"

	"github.com/kraklabs/loglens/pkg/extract"
)

// copilot content prefix, kept so mixed-tool views stay attributable.
const copilotPrefix = "[copilot] "

// CopilotParser handles Copilot session logs. Lines are usually JSON
// objects with a message, text, or content field, but raw non-JSON output
// lines occur and are kept verbatim.
type CopilotParser struct{}

func NewCopilotParser() *CopilotParser { return &CopilotParser{} }

func (p *CopilotParser) Tool() Tool { return ToolCopilot }

// CanParse accepts a file when a sampled JSON line carries this schema's
// keys. Flat records with both role and content belong to the ChatGPT
// variant and are not claimed here.
func (p *CopilotParser) CanParse(path string) bool {
	for _, line := range sampleLines(path, 10) {
		var record map[string]any
		if json.Unmarshal([]byte(line), &record) != nil {
			continue
		}
		if _, ok := record["text"]; ok {
			return true
		}
		if _, hasRole := record["role"]; hasRole {
			continue
		}
		for _, key := range []string{"message", "content"} {
			if _, ok := record[key]; ok {
				return true
			}
		}
	}
	return false
}

func (p *CopilotParser) ParseLine(line string) (Message, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Message{}, false
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		// Raw console output interleaved with the JSON stream. Keep it
		// attributed to the assistant side.
		return Message{
			Role:      RoleAssistant,
			Timestamp: formatInstant(Now()),
			Content:   copilotPrefix + line,
			Tool:      ToolCopilot,
		}, true
	}

	content := copilotContent(record)
	content = extract.Clean(content)
	if content == "" {
		return Message{}, false
	}

	role, _ := record["role"].(string)
	if role != RoleUser && role != RoleAssistant {
		role = RoleAssistant
	}

	ts, _ := record["timestamp"].(string)
	return Message{
		Role:      role,
		Timestamp: formatStamp(ts),
		Content:   copilotPrefix + content,
		Tool:      ToolCopilot,
	}, true
}

func copilotContent(record map[string]any) string {
	for _, key := range []string{"message", "text", "content"} {
		v, ok := record[key]
		if !ok {
			continue
		}
		if s := extract.Content(v); s != "" {
			return s
		}
	}
	return ""
}
