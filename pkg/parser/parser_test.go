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

func writeLog(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile_ValidLines(t *testing.T) {
	path := writeLog(t, "session.jsonl",
		`{"message":{"role":"user","content":"hello"},"timestamp":"2025-03-01T10:00:00Z"}`,
		`{"message":{"role":"assistant","content":"hi there"},"timestamp":"2025-03-01T10:00:05Z"}`,
	)

	msgs, err := ParseFile(NewClaudeParser(), path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "hi there", msgs[1].Content)
	assert.Equal(t, "session.jsonl", msgs[0].Filename)
	assert.Equal(t, ToolClaude, msgs[0].Tool)
}

func TestParseFile_SkipsMalformedLines(t *testing.T) {
	path := writeLog(t, "session.jsonl",
		`{"message":{"role":"user","content":"first"},"timestamp":"2025-03-01T10:00:00Z"}`,
		`not valid json`,
		`{"message":{"role":"assistant","content":"second"},"timestamp":"2025-03-01T10:00:05Z"}`,
	)

	msgs, err := ParseFile(NewClaudeParser(), path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestParseFile_SkipsBlankLines(t *testing.T) {
	path := writeLog(t, "session.jsonl",
		``,
		`{"message":{"role":"user","content":"only"},"timestamp":"2025-03-01T10:00:00Z"}`,
		`   `,
	)

	msgs, err := ParseFile(NewClaudeParser(), path)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestParseFile_MissingFile(t *testing.T) {
	_, err := ParseFile(NewClaudeParser(), filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}

func TestFormatStamp_ConvertsToDisplayZone(t *testing.T) {
	// Midnight UTC renders as 09:00 in the fixed +9h zone.
	assert.Equal(t, "2025-03-01 09:00:00", formatStamp("2025-03-01T00:00:00Z"))
	// Dates can roll over at the zone boundary.
	assert.Equal(t, "2025-03-02 05:30:00", formatStamp("2025-03-01T20:30:00Z"))
}

func TestFormatStamp_InvalidFallsBackToNow(t *testing.T) {
	out := formatStamp("not a timestamp")
	assert.Len(t, out, len("2006-01-02 15:04:05"))
}

func TestClaudeParser_RoleFallbacks(t *testing.T) {
	p := NewClaudeParser()

	msg, ok := p.ParseLine(`{"userType":"external","message":{"content":"from user"},"timestamp":"2025-03-01T10:00:00Z"}`)
	require.True(t, ok)
	assert.Equal(t, "user", msg.Role)

	_, ok = p.ParseLine(`{"type":"progress","message":{"content":"spinner"},"timestamp":"2025-03-01T10:00:00Z"}`)
	assert.False(t, ok, "non-conversation roles are filtered")
}

func TestClaudeParser_SummaryRecord(t *testing.T) {
	p := NewClaudeParser()

	msg, ok := p.ParseLine(`{"type":"summary","summary":"Fixed the flaky build","timestamp":"2025-03-01T10:00:00Z"}`)
	require.True(t, ok)
	assert.Equal(t, "system", msg.Role)
	assert.Equal(t, "Fixed the flaky build", msg.Content)
}

func TestClaudeParser_ToolUseContent(t *testing.T) {
	p := NewClaudeParser()

	line := `{"message":{"role":"assistant","content":[{"type":"text","text":"running it"},{"type":"tool_use","name":"Bash","input":{"command":"ls"}}]},"timestamp":"2025-03-01T10:00:00Z"}`
	msg, ok := p.ParseLine(line)
	require.True(t, ok)
	assert.Contains(t, msg.Content, "running it")
	assert.Contains(t, msg.Content, "[Tool: Bash]")
	assert.Contains(t, msg.Content, `"command": "ls"`)
}

func TestClaudeParser_EmptyContentDropped(t *testing.T) {
	p := NewClaudeParser()

	_, ok := p.ParseLine(`{"message":{"role":"user","content":"<system-reminder>internal</system-reminder>"},"timestamp":"2025-03-01T10:00:00Z"}`)
	assert.False(t, ok)
}

func TestCopilotParser_JSONLine(t *testing.T) {
	p := NewCopilotParser()

	msg, ok := p.ParseLine(`{"role":"user","message":"how do I sort a map","timestamp":"2025-03-01T10:00:00Z"}`)
	require.True(t, ok)
	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, "[copilot] how do I sort a map", msg.Content)
	assert.Equal(t, ToolCopilot, msg.Tool)
}

func TestCopilotParser_RawLineKeptVerbatim(t *testing.T) {
	p := NewCopilotParser()

	msg, ok := p.ParseLine(`compiling project... done`)
	require.True(t, ok)
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "[copilot] compiling project... done", msg.Content)
	assert.NotEmpty(t, msg.Timestamp)
}

func TestCopilotParser_RoleDefaultsToAssistant(t *testing.T) {
	p := NewCopilotParser()

	msg, ok := p.ParseLine(`{"text":"suggestion accepted"}`)
	require.True(t, ok)
	assert.Equal(t, "assistant", msg.Role)
}

func TestChatGPTParser_ChoicesShape(t *testing.T) {
	p := NewChatGPTParser()

	msg, ok := p.ParseLine(`{"choices":[{"message":{"role":"assistant","content":"the answer"}}],"created":1740790800}`)
	require.True(t, ok)
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "the answer", msg.Content)
	assert.Equal(t, ToolChatGPT, msg.Tool)
}

func TestChatGPTParser_FlatShape(t *testing.T) {
	p := NewChatGPTParser()

	msg, ok := p.ParseLine(`{"role":"user","content":"explain goroutines","timestamp":"2025-03-01T10:00:00Z"}`)
	require.True(t, ok)
	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, "explain goroutines", msg.Content)
}

func TestChatGPTParser_FlatMessageField(t *testing.T) {
	p := NewChatGPTParser()

	msg, ok := p.ParseLine(`{"role":"user","message":"explain goroutines","timestamp":"2025-03-01T10:00:00Z"}`)
	require.True(t, ok)
	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, "explain goroutines", msg.Content)
}

func TestChatGPTParser_EpochTimestamp(t *testing.T) {
	p := NewChatGPTParser()

	// 2025-03-01T00:00:00Z as epoch seconds renders in the +9h zone.
	msg, ok := p.ParseLine(`{"role":"user","content":"hello","created":1740787200}`)
	require.True(t, ok)
	assert.Equal(t, "2025-03-01 09:00:00", msg.Timestamp)
}
