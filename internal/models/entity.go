package models

import "fmt"

// RiskTier classifies a detected entity's sensitivity.
type RiskTier string

const (
	RiskHigh   RiskTier = "high"
	RiskMedium RiskTier = "medium"
	RiskLow    RiskTier = "low"
)

// EntityCategory groups entity types for policy purposes.
type EntityCategory string

const (
	CategoryIdentity  EntityCategory = "identity"
	CategoryContact   EntityCategory = "contact"
	CategoryFinancial EntityCategory = "financial"
	CategoryMedical   EntityCategory = "medical"
	CategoryTherapy   EntityCategory = "therapy"
	CategoryTemporal  EntityCategory = "temporal"
	CategoryOtherPII  EntityCategory = "other"
)

// DetectedEntity is a span within a memory item's content flagged as
// potentially sensitive. Produced fresh on every classification pass and
// never persisted independently; only its ID is kept in redaction
// metadata.
type DetectedEntity struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Start      int            `json:"start"`
	End        int            `json:"end"`
	Type       string         `json:"type"`
	Confidence float64        `json:"confidence"`
	Risk       RiskTier       `json:"risk"`
	Category   EntityCategory `json:"category"`
}

// EntityID derives the stable identifier for a detection. The ID is a
// function of type and offsets, so the same content and analyzer run
// always produce the same IDs.
func EntityID(entityType string, start, end int) string {
	return fmt.Sprintf("%s:%d:%d", entityType, start, end)
}
