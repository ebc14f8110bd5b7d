// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"encoding/json"
	"time"

	"github.com/kraklabs/loglens/pkg/extract"
)

// ChatGPTParser handles OpenAI-style logs in two shapes: API response
// records with a choices array, and flat records with top-level role and
// content fields. Timestamps may be numeric Unix epochs.
type ChatGPTParser struct{}

func NewChatGPTParser() *ChatGPTParser { return &ChatGPTParser{} }

func (p *ChatGPTParser) Tool() Tool { return ToolChatGPT }

func (p *ChatGPTParser) CanParse(path string) bool {
	for _, line := range sampleLines(path, 10) {
		var record map[string]any
		if json.Unmarshal([]byte(line), &record) != nil {
			continue
		}
		if _, ok := record["choices"]; ok {
			return true
		}
		if _, hasRole := record["role"]; hasRole {
			_, hasContent := record["content"]
			_, hasMessage := record["message"]
			if hasContent || hasMessage {
				return true
			}
		}
	}
	return false
}

func (p *ChatGPTParser) ParseLine(line string) (Message, bool) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return Message{}, false
	}

	role, content := chatgptPayload(record)
	content = extract.Clean(content)
	if content == "" {
		return Message{}, false
	}
	if role != RoleUser && role != RoleAssistant {
		return Message{}, false
	}

	return Message{
		Role:      role,
		Timestamp: chatgptStamp(record),
		Content:   content,
		Tool:      ToolChatGPT,
	}, true
}

// chatgptPayload pulls role and content out of either record shape. The
// choices form wins when both are present; flat records carry their text
// under content or message.
func chatgptPayload(record map[string]any) (role, content string) {
	if choices, ok := record["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if msg, ok := choice["message"].(map[string]any); ok {
				role, _ = msg["role"].(string)
				return role, extract.Content(msg["content"])
			}
		}
	}
	role, _ = record["role"].(string)
	if v, ok := record["content"]; ok {
		return role, extract.Content(v)
	}
	return role, extract.Content(record["message"])
}

// chatgptStamp resolves a timestamp from created or timestamp fields,
// numeric epoch or RFC 3339 string, defaulting to now.
func chatgptStamp(record map[string]any) string {
	for _, key := range []string{"created", "timestamp"} {
		switch v := record[key].(type) {
		case float64:
			return formatInstant(time.Unix(int64(v), 0))
		case string:
			if v != "" {
				return formatStamp(v)
			}
		}
	}
	return formatInstant(Now())
}
