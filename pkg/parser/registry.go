// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

// Registry holds the parser variants in fixed priority order and picks one
// per file. Selection never fails: when nothing matches, the Claude variant
// serves as fallback since its schema is the most permissive.
type Registry struct {
	parsers []Parser
	byTool  map[Tool]Parser
}

// NewRegistry builds the registry with the standard variants in priority
// order: claude, copilot, chatgpt.
func NewRegistry() *Registry {
	parsers := []Parser{
		NewClaudeParser(),
		NewCopilotParser(),
		NewChatGPTParser(),
	}
	byTool := make(map[Tool]Parser, len(parsers))
	for _, p := range parsers {
		byTool[p.Tool()] = p
	}
	return &Registry{parsers: parsers, byTool: byTool}
}

// ForTool returns the variant registered for tool, or the fallback when the
// tool is unknown.
func (r *Registry) ForTool(tool Tool) Parser {
	if p, ok := r.byTool[tool]; ok {
		return p
	}
	return r.byTool[ToolClaude]
}

// Select picks the parser for the file at path. A non-empty override skips
// detection entirely. Otherwise detection runs first, then each variant's
// structural self-test in priority order, and finally the fallback.
func (r *Registry) Select(path string, override Tool) Parser {
	if override != "" && override != ToolUnknown {
		return r.ForTool(override)
	}
	if tool := Detect(path, ""); tool != ToolUnknown {
		return r.ForTool(tool)
	}
	for _, p := range r.parsers {
		if p.CanParse(path) {
			return p
		}
	}
	return r.byTool[ToolClaude]
}
