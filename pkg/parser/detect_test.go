// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_OverrideWins(t *testing.T) {
	assert.Equal(t, ToolChatGPT, Detect("/home/u/.claude/projects/x/log.jsonl", ToolChatGPT))
}

func TestDetect_PathHeuristics(t *testing.T) {
	cases := []struct {
		path string
		want Tool
	}{
		{"/home/u/.claude/projects/myapp/session.jsonl", ToolClaude},
		{"/var/log/copilot/chat.jsonl", ToolCopilot},
		{"/exports/chatgpt/conv.jsonl", ToolChatGPT},
		{"/exports/openai/conv.jsonl", ToolChatGPT},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Detect(tc.path, ""), tc.path)
	}
}

func TestDetect_ContentScoring(t *testing.T) {
	path := writeLog(t, "log.jsonl",
		`{"model":"gpt-4","choices":[{"message":{"role":"assistant","content":"x"}}]}`,
		`{"model":"gpt-4","choices":[{"message":{"role":"assistant","content":"y"}}]}`,
	)
	// Rename into a neutral directory so path heuristics stay out of it.
	neutral := filepath.Join(t.TempDir(), "data.jsonl")
	require.NoError(t, os.Rename(path, neutral))

	assert.Equal(t, ToolChatGPT, Detect(neutral, ""))
}

func TestDetect_UnreadableIsUnknown(t *testing.T) {
	assert.Equal(t, ToolUnknown, Detect(filepath.Join(t.TempDir(), "nope.jsonl"), ""))
}

func TestRegistry_SelectByOverride(t *testing.T) {
	r := NewRegistry()
	p := r.Select("/anywhere/log.jsonl", ToolCopilot)
	assert.Equal(t, ToolCopilot, p.Tool())
}

func TestRegistry_SelectFallsBackToClaude(t *testing.T) {
	r := NewRegistry()
	path := writeLog(t, "opaque.jsonl", `{"unrelated":"shape"}`)
	p := r.Select(path, "")
	assert.Equal(t, ToolClaude, p.Tool())
}

func TestRegistry_FlatRoleContentRecords(t *testing.T) {
	path := writeLog(t, "conversation.jsonl",
		`{"type":"message","role":"user","content":"Hello","timestamp":"2025-03-01T10:00:00Z"}`,
		`{"type":"message","role":"assistant","content":"Hi there!","timestamp":"2025-03-01T10:00:05Z"}`,
	)

	p := NewRegistry().Select(path, "")
	require.Equal(t, ToolChatGPT, p.Tool())

	// Contents stay exact, no per-tool prefix ever applies to this shape.
	msgs, err := ParseFile(p, path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, "Hi there!", msgs[1].Content)
}

func TestRegistry_ForToolUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, ToolClaude, r.ForTool(ToolUnknown).Tool())
}
