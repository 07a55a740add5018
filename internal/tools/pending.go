package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListPendingInput defines the input schema for the list_pending tool.
type ListPendingInput struct {
	UserID string `json:"user_id" jsonschema:"required,User whose pending records to list"`
}

// PendingEntry is one unresolved consent record in the response.
type PendingEntry struct {
	RecordID string          `json:"record_id"`
	Content  string          `json:"content"`
	Entities []PendingEntity `json:"entities"`
	Created  time.Time       `json:"created"`
	AgeHours float64         `json:"age_hours"`
}

// PendingEntity summarizes one detected entity awaiting a decision.
type PendingEntity struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
	Risk string `json:"risk"`
}

// NewListPendingHandler creates the list_pending tool handler.
func NewListPendingHandler(deps *Dependencies) mcp.ToolHandlerFor[ListPendingInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListPendingInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.UserID == "" {
			return ErrorResult("user_id is required", "Provide the user ID"), nil, nil
		}

		records, err := deps.Pending.ListPending(ctx, input.UserID)
		if err != nil {
			deps.Logger.Error("list pending failed", "user", input.UserID, "error", err)
			return ErrorResult("Failed to list pending records", "Database may be unavailable"), nil, nil
		}

		entries := make([]PendingEntry, 0, len(records))
		for _, rec := range records {
			entry := PendingEntry{
				RecordID: rec.ID,
				Content:  rec.Component.Content,
				Created:  rec.Created,
				AgeHours: time.Since(rec.Created).Hours(),
				Entities: make([]PendingEntity, 0, len(rec.Entities)),
			}
			for _, e := range rec.Entities {
				entry.Entities = append(entry.Entities, PendingEntity{
					ID:   e.ID,
					Type: e.Type,
					Text: e.Text,
					Risk: string(e.Risk),
				})
			}
			entries = append(entries, entry)
		}

		jsonBytes, _ := json.MarshalIndent(entries, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}
