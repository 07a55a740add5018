package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	// Ping tool - test/placeholder
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	// Core routing pipeline: classify, decompose, place
	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_message",
		Description: "Route a conversational item through risk classification, significance decomposition and dual-storage placement",
	}, NewProcessHandler(deps))

	// Consent lifecycle
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_consent",
		Description: "Approve or deny a deferred durable-storage decision, with per-entity keep/anonymize choices",
	}, NewResolveConsentHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_pending",
		Description: "List unresolved consent records for a user",
	}, NewListPendingHandler(deps))

	// Retrieval
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recall",
		Description: "Search durable memory by vector similarity",
	}, NewRecallHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_context",
		Description: "Fetch the user's ephemeral session context, oldest first",
	}, NewContextHandler(deps))

	// Maintenance
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forget",
		Description: "Delete a stored record from the durable or ephemeral tier",
	}, NewForgetHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Report engine timing and token usage since startup",
	}, NewStatsHandler(deps))
}
