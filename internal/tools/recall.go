package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

// defaultRecallLimit bounds recall results when the caller omits limit.
const defaultRecallLimit = 5

// RecallInput defines the input schema for the recall tool.
type RecallInput struct {
	UserID string `json:"user_id" jsonschema:"required,User whose durable memory to search"`
	Query  string `json:"query" jsonschema:"required,Natural language query"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum results (default 5)"`
}

// RecallEntry is one durable memory in the response.
type RecallEntry struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	Category       string    `json:"category"`
	Level          string    `json:"level"`
	HasPII         bool      `json:"has_pii"`
	HasHighRiskPII bool      `json:"has_high_risk_pii"`
	Timestamp      time.Time `json:"timestamp"`
}

func recallEntry(rec models.ComponentRecord) RecallEntry {
	return RecallEntry{
		ID:             rec.ID,
		Content:        rec.Content,
		Category:       string(rec.Significance.Category),
		Level:          string(rec.Significance.Level),
		HasPII:         rec.RiskFlags.HasPII,
		HasHighRiskPII: rec.RiskFlags.HasHighRiskPII,
		Timestamp:      rec.Timestamp,
	}
}

// NewRecallHandler creates the recall tool handler. Searches the
// durable tier by vector similarity; redaction already happened at
// write time, so results are safe to surface.
func NewRecallHandler(deps *Dependencies) mcp.ToolHandlerFor[RecallInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RecallInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.UserID == "" {
			return ErrorResult("user_id is required", "Provide the user ID"), nil, nil
		}
		if input.Query == "" {
			return ErrorResult("query is required", "Provide a search query"), nil, nil
		}

		limit := input.Limit
		if limit <= 0 {
			limit = defaultRecallLimit
		}

		records, err := deps.Durable.SimilaritySearch(ctx, input.UserID, input.Query, limit)
		if err != nil {
			deps.Logger.Error("recall failed", "user", input.UserID, "error", err)
			return ErrorResult("Failed to search durable memory", "Check database and Ollama connections"), nil, nil
		}

		entries := make([]RecallEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, recallEntry(rec))
		}

		jsonBytes, _ := json.MarshalIndent(entries, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}
