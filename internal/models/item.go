// Package models defines data structures for the memgate routing engine.
package models

import "time"

// ItemType classifies the origin of a memory item.
type ItemType string

const (
	ItemUserMessage      ItemType = "user_message"
	ItemAssistantMessage ItemType = "assistant_message"
	ItemJournalEntry     ItemType = "journal_entry"
	ItemSystemNote       ItemType = "system_note"
)

// ValidItemTypes is the set of all recognized item types.
var ValidItemTypes = []ItemType{
	ItemUserMessage,
	ItemAssistantMessage,
	ItemJournalEntry,
	ItemSystemNote,
}

// IsValid returns true if the item type is recognized.
func (t ItemType) IsValid() bool {
	for i := range ValidItemTypes {
		if t == ValidItemTypes[i] {
			return true
		}
	}
	return false
}

// Conversational returns true for live chat turns. The consent-deferral
// gate only fires for conversational items; other types take the
// default durable redaction path.
func (t ItemType) Conversational() bool {
	return t == ItemUserMessage || t == ItemAssistantMessage
}

// Assistant returns true for assistant-authored items. Assistant content
// is never durably stored.
func (t ItemType) Assistant() bool {
	return t == ItemAssistantMessage
}

// MemoryItem is one unit of raw conversational input. Immutable after
// creation except for metadata patches applied by the consent lifecycle.
type MemoryItem struct {
	ID       string         `json:"id"`
	UserID   string         `json:"user_id"`
	Content  string         `json:"content"`
	Type     ItemType       `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Created  time.Time      `json:"created"`
}
