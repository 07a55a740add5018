package models

import "time"

// StorageType identifies which tier a component record was written to.
type StorageType string

const (
	StorageEphemeral StorageType = "ephemeral"
	StorageDurable   StorageType = "durable"
)

// RiskFlags summarizes the entity analysis for a routed component.
type RiskFlags struct {
	HasPII            bool     `json:"has_pii"`
	HasHighRiskPII    bool     `json:"has_high_risk_pii"`
	DetectedEntityIDs []string `json:"detected_entity_ids,omitempty"`
}

// Significance carries the decomposer's classification on a record.
type Significance struct {
	Category       SignificanceCategory  `json:"category"`
	Level          SignificanceLevel     `json:"level"`
	Recommendation StorageRecommendation `json:"recommendation"`
}

// ComponentRecord is the persisted shape of a routed component, shared
// by the ephemeral and durable tiers. Content is already redacted for
// the record's destination; the embedding is filled in by the durable
// store's own embedding step.
type ComponentRecord struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Content        string       `json:"content"`
	SourceItemID   string       `json:"source_item_id"`
	ComponentIndex int          `json:"component_index"`
	StorageType    StorageType  `json:"storage_type"`
	RiskFlags      RiskFlags    `json:"risk_flags"`
	Significance   Significance `json:"significance"`
	PendingConsent bool         `json:"pending_consent"`
	Embedding      []float32    `json:"embedding,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}
