package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/memgate-go/internal/models"
	"github.com/raphaelgruber/memgate-go/internal/router"
)

// ProcessInput defines the input schema for the process_message tool.
type ProcessInput struct {
	UserID  string `json:"user_id" jsonschema:"required,Owner of the memory item"`
	Content string `json:"content" jsonschema:"required,Raw text of the conversational item"`
	Type    string `json:"type,omitempty" jsonschema:"Item type: user_message, assistant_message, journal_entry or system_note (default user_message)"`
	// Consent distinguishes absent from empty: omit the field entirely
	// when no consent was collected, send {} when the user was asked and
	// overrode nothing.
	Consent         map[string]string `json:"consent,omitempty" jsonschema:"Per-entity consent decisions, entity ID to keep or anonymize. Omit when no consent was collected"`
	ExemptAssistant bool              `json:"exempt_assistant,omitempty" jsonschema:"Skip ephemeral placement for assistant-authored items"`
}

// parseConsent converts the wire map into a ConsentMap, preserving the
// nil-vs-empty distinction that arms the deferral gate.
func parseConsent(raw map[string]string) (models.ConsentMap, string) {
	if raw == nil {
		return nil, ""
	}
	cm := make(models.ConsentMap, len(raw))
	for id, action := range raw {
		a := models.ConsentAction(action)
		if !a.IsValid() {
			return nil, action
		}
		cm[id] = a
	}
	return cm, ""
}

// NewProcessHandler creates the process_message tool handler. It runs
// the full routing pipeline for one inbound item and reports where each
// component ended up.
func NewProcessHandler(deps *Dependencies) mcp.ToolHandlerFor[ProcessInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProcessInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.UserID == "" {
			return ErrorResult("user_id is required", "Provide the ID of the user who owns this item"), nil, nil
		}
		if input.Content == "" {
			return ErrorResult("content is required", "Provide the item text"), nil, nil
		}

		itemType := models.ItemType(input.Type)
		if input.Type == "" {
			itemType = models.ItemUserMessage
		}
		if !itemType.IsValid() {
			return ErrorResult("Unknown item type "+input.Type,
				"Use user_message, assistant_message, journal_entry or system_note"), nil, nil
		}

		consentMap, bad := parseConsent(input.Consent)
		if bad != "" {
			return ErrorResult("Unknown consent action "+bad, "Use keep or anonymize"), nil, nil
		}

		item := &models.MemoryItem{
			ID:      uuid.NewString(),
			UserID:  input.UserID,
			Content: input.Content,
			Type:    itemType,
			Created: time.Now(),
		}

		result, err := deps.Router.Route(ctx, item, router.Options{
			Consent:         consentMap,
			ExemptAssistant: input.ExemptAssistant,
		})
		if err != nil {
			deps.Logger.Error("routing failed", "user", input.UserID, "error", err)
			return ErrorResult("Failed to route item", "Check item type and user ID"), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(result, "", "  ")

		deps.Logger.Info("item routed",
			"item", item.ID,
			"user", input.UserID,
			"components", len(result.Components),
			"entities", len(result.Entities),
			"degraded", result.Degraded)
		return TextResult(string(jsonBytes)), nil, nil
	}
}
