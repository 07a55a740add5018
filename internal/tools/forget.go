package tools

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/memgate-go/internal/store"
)

// ForgetInput defines the input schema for the forget tool.
type ForgetInput struct {
	UserID string `json:"user_id" jsonschema:"required,Owner of the record"`
	ID     string `json:"id" jsonschema:"required,Record ID to delete"`
	Tier   string `json:"tier,omitempty" jsonschema:"durable or ephemeral (default durable)"`
}

// NewForgetHandler creates the forget tool handler. Deletion is
// user-scoped so one user cannot remove another's records.
func NewForgetHandler(deps *Dependencies) mcp.ToolHandlerFor[ForgetInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ForgetInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.UserID == "" {
			return ErrorResult("user_id is required", "Provide the owner's user ID"), nil, nil
		}
		if input.ID == "" {
			return ErrorResult("id is required", "Provide the record ID to delete"), nil, nil
		}

		var err error
		switch input.Tier {
		case "", "durable":
			err = deps.Durable.Delete(ctx, input.UserID, input.ID)
		case "ephemeral":
			err = deps.Ephemeral.Delete(ctx, input.UserID, input.ID)
		default:
			return ErrorResult("Unknown tier "+input.Tier, "Use durable or ephemeral"), nil, nil
		}

		if errors.Is(err, store.ErrNotFound) {
			return ErrorResult("Record "+input.ID+" not found", "It may already be deleted"), nil, nil
		}
		if err != nil {
			deps.Logger.Error("forget failed", "user", input.UserID, "id", input.ID, "error", err)
			return ErrorResult("Failed to delete record", "Database may be unavailable"), nil, nil
		}

		deps.Logger.Info("record forgotten", "user", input.UserID, "id", input.ID, "tier", input.Tier)
		return TextResult("Deleted " + input.ID), nil, nil
	}
}
