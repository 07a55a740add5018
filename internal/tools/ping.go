package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PingInput defines the input schema for the ping tool.
type PingInput struct {
	Echo string `json:"echo,omitempty" jsonschema:"Text to echo back"`
}

// NewPingHandler creates the ping tool handler, a liveness check for
// MCP hosts wiring up the engine.
func NewPingHandler(deps *Dependencies) mcp.ToolHandlerFor[PingInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PingInput) (*mcp.CallToolResult, any, error) {
		deps.Logger.Debug("ping", "echo", input.Echo)

		if input.Echo != "" {
			return TextResult(input.Echo), nil, nil
		}
		return TextResult("pong"), nil, nil
	}
}
