package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ContextInput defines the input schema for the get_context tool.
type ContextInput struct {
	UserID string `json:"user_id" jsonschema:"required,User whose session context to fetch"`
}

// ContextEntry is one ephemeral record in the response.
type ContextEntry struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	Category       string    `json:"category"`
	PendingConsent bool      `json:"pending_consent,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewContextHandler creates the get_context tool handler. Returns the
// user's ephemeral tier, oldest first, for session personalization.
func NewContextHandler(deps *Dependencies) mcp.ToolHandlerFor[ContextInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ContextInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.UserID == "" {
			return ErrorResult("user_id is required", "Provide the user ID"), nil, nil
		}

		records, err := deps.Ephemeral.List(ctx, input.UserID)
		if err != nil {
			deps.Logger.Error("get context failed", "user", input.UserID, "error", err)
			return ErrorResult("Failed to fetch session context", "Store may be unavailable"), nil, nil
		}

		entries := make([]ContextEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, ContextEntry{
				ID:             rec.ID,
				Content:        rec.Content,
				Category:       string(rec.Significance.Category),
				PendingConsent: rec.PendingConsent,
				Timestamp:      rec.Timestamp,
			})
		}

		jsonBytes, _ := json.MarshalIndent(entries, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}
