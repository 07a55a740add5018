package models

import "time"

// ConsentAction is the user's choice for one detected entity.
type ConsentAction string

const (
	ConsentKeep      ConsentAction = "keep"
	ConsentAnonymize ConsentAction = "anonymize"
)

// IsValid returns true if the action is recognized.
func (a ConsentAction) IsValid() bool {
	return a == ConsentKeep || a == ConsentAnonymize
}

// ConsentMap maps detected entity IDs to consent actions. A nil map
// means the caller supplied no consent at all, which is what triggers
// the deferral gate for conversational items. Entries referencing
// unknown entity IDs are dropped with a warning.
type ConsentMap map[string]ConsentAction

// ResolutionState tracks a pending consent record's lifecycle.
type ResolutionState string

const (
	ResolutionPending  ResolutionState = "pending"
	ResolutionApproved ResolutionState = "approved"
	ResolutionDenied   ResolutionState = "denied"
	ResolutionExpired  ResolutionState = "expired"
)

// Terminal reports whether the state allows no further transitions.
func (s ResolutionState) Terminal() bool {
	return s == ResolutionApproved || s == ResolutionDenied || s == ResolutionExpired
}

// PendingConsentRecord is created when a component requires durable
// storage but contains unresolved high-risk entities in a live
// conversation. Created by the router, mutated only by the lifecycle
// manager, terminal once resolved or expired.
type PendingConsentRecord struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Component   MemoryComponent  `json:"component"`
	EphemeralID string           `json:"ephemeral_id,omitempty"`
	Entities    []DetectedEntity `json:"entities"`
	Created     time.Time        `json:"created"`
	Resolution  ResolutionState  `json:"resolution"`
	Resolved    *time.Time       `json:"resolved,omitempty"`
}
