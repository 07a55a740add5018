package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrorResult builds a tool error with an optional recovery hint,
// formatted as "{msg}. {hint}". IsError is set so the calling model
// sees the failure and can self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// TextResult builds a plain text success result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
