package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/memgate-go/internal/store"
)

// ResolveConsentInput defines the input schema for the resolve_consent
// tool.
type ResolveConsentInput struct {
	UserID    string            `json:"user_id" jsonschema:"required,Owner of the pending record"`
	RecordID  string            `json:"record_id" jsonschema:"required,Pending consent record ID from a deferred routing result"`
	Action    string            `json:"action" jsonschema:"required,approve or deny"`
	Decisions map[string]string `json:"decisions,omitempty" jsonschema:"Per-entity decisions when approving, entity ID to keep or anonymize. Unlisted high-risk entities are anonymized"`
}

// ResolveConsentResult is the response for an approved resolution.
type ResolveConsentResult struct {
	Resolution string `json:"resolution"`
	RecordID   string `json:"record_id"`
	DurableID  string `json:"durable_id,omitempty"`
	Content    string `json:"content,omitempty"`
}

// NewResolveConsentHandler creates the resolve_consent tool handler.
// Approval performs the deferred durable write with the supplied
// decisions; denial discards the deferral. Either way the record
// resolves at most once.
func NewResolveConsentHandler(deps *Dependencies) mcp.ToolHandlerFor[ResolveConsentInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ResolveConsentInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.UserID == "" {
			return ErrorResult("user_id is required", "Provide the ID of the record owner"), nil, nil
		}
		if input.RecordID == "" {
			return ErrorResult("record_id is required", "Provide the pending consent record ID"), nil, nil
		}

		switch input.Action {
		case "approve":
			decisions, bad := parseConsent(input.Decisions)
			if bad != "" {
				return ErrorResult("Unknown consent action "+bad, "Use keep or anonymize"), nil, nil
			}

			rec, err := deps.Lifecycle.Approve(ctx, input.UserID, input.RecordID, decisions)
			if err != nil {
				return consentError(deps, input.RecordID, err), nil, nil
			}

			jsonBytes, _ := json.MarshalIndent(ResolveConsentResult{
				Resolution: "approved",
				RecordID:   input.RecordID,
				DurableID:  rec.ID,
				Content:    rec.Content,
			}, "", "  ")
			return TextResult(string(jsonBytes)), nil, nil

		case "deny":
			if err := deps.Lifecycle.Deny(ctx, input.UserID, input.RecordID); err != nil {
				return consentError(deps, input.RecordID, err), nil, nil
			}

			jsonBytes, _ := json.MarshalIndent(ResolveConsentResult{
				Resolution: "denied",
				RecordID:   input.RecordID,
			}, "", "  ")
			return TextResult(string(jsonBytes)), nil, nil

		default:
			return ErrorResult("Unknown action "+input.Action, "Use approve or deny"), nil, nil
		}
	}
}

func consentError(deps *Dependencies, recordID string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrorResult("Pending record "+recordID+" not found", "Use list_pending to see open records")
	case errors.Is(err, store.ErrAlreadyResolved):
		return ErrorResult("Pending record "+recordID+" is already resolved", "It may have been decided earlier or expired")
	}
	deps.Logger.Error("consent resolution failed", "record", recordID, "error", err)
	return ErrorResult("Failed to resolve consent", "Database may be unavailable")
}
