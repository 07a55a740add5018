// Package risk annotates raw entity detections with risk tiers and
// categories from an immutable policy table.
package risk

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/memgate-go/internal/metrics"
	"github.com/raphaelgruber/memgate-go/internal/models"
	"github.com/raphaelgruber/memgate-go/internal/recognition"
	"github.com/raphaelgruber/memgate-go/internal/retry"
)

// Rule assigns a risk tier and category to one entity type.
type Rule struct {
	Tier     models.RiskTier
	Category models.EntityCategory
}

// Policy is the immutable risk policy table. Constructed once and
// injected, never read from process-wide state, so classification stays
// deterministic and testable.
type Policy struct {
	rules map[string]Rule
}

// NewPolicy creates a policy from the given rules. The map is copied.
func NewPolicy(rules map[string]Rule) *Policy {
	copied := make(map[string]Rule, len(rules))
	for k, v := range rules {
		copied[k] = v
	}
	return &Policy{rules: copied}
}

// DefaultPolicy returns the standard policy table: direct identifiers
// are high risk, treatment details medium, therapy process context low.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string]Rule{
		recognition.TypePerson:        {models.RiskHigh, models.CategoryIdentity},
		recognition.TypeEmail:         {models.RiskHigh, models.CategoryContact},
		recognition.TypePhone:         {models.RiskHigh, models.CategoryContact},
		recognition.TypeSSN:           {models.RiskHigh, models.CategoryFinancial},
		recognition.TypeCreditCard:    {models.RiskHigh, models.CategoryFinancial},
		recognition.TypeMedication:    {models.RiskMedium, models.CategoryMedical},
		recognition.TypeDiagnosis:     {models.RiskMedium, models.CategoryMedical},
		recognition.TypeFacility:      {models.RiskMedium, models.CategoryMedical},
		recognition.TypeTherapyType:   {models.RiskLow, models.CategoryTherapy},
		recognition.TypeCrisisHotline: {models.RiskLow, models.CategoryTherapy},
		recognition.TypeDate:          {models.RiskLow, models.CategoryTemporal},
	})
}

// Lookup returns the rule for an entity type. Unknown types default to
// medium risk in the catch-all category.
func (p *Policy) Lookup(entityType string) Rule {
	if r, ok := p.rules[strings.ToLower(entityType)]; ok {
		return r
	}
	return Rule{Tier: models.RiskMedium, Category: models.CategoryOtherPII}
}

// Classifier wraps a recognition detector and applies the policy table.
type Classifier struct {
	detector recognition.Detector
	policy   *Policy
	retry    retry.Policy
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewClassifier creates a classifier. A nil logger falls back to
// slog.Default; a nil metrics collector disables recording.
func NewClassifier(detector recognition.Detector, policy *Policy, retryPolicy retry.Policy, logger *slog.Logger, collector *metrics.Collector) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		detector: detector,
		policy:   policy,
		retry:    retryPolicy,
		logger:   logger,
		metrics:  collector,
	}
}

// Classify runs detection and annotates every span. Detector failure is
// recovered locally: the conversation path must never block on the
// recognition collaborator, so errors degrade to zero entities.
// Duplicate and overlapping spans are passed through untouched.
func (c *Classifier) Classify(ctx context.Context, text string) []models.DetectedEntity {
	start := time.Now()

	var detections []recognition.Detection
	err := c.retry.Do(ctx, func() error {
		var derr error
		detections, derr = c.detector.Detect(ctx, text)
		return derr
	})
	if c.metrics != nil {
		c.metrics.RecordTiming(metrics.OpRecognition, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("entity detection unavailable, proceeding with zero entities", "error", err)
		return nil
	}

	entities := make([]models.DetectedEntity, 0, len(detections))
	for _, d := range detections {
		rule := c.policy.Lookup(d.Type)
		entities = append(entities, models.DetectedEntity{
			ID:         models.EntityID(d.Type, d.Start, d.End),
			Text:       d.Text,
			Start:      d.Start,
			End:        d.End,
			Type:       d.Type,
			Confidence: d.Confidence,
			Risk:       rule.Tier,
			Category:   rule.Category,
		})
	}
	return entities
}

// Anchor re-derives entity offsets against a fragment of the originally
// analyzed content. Decomposition extracts component text whose offsets
// no longer line up with item-level detections; anchored copies keep the
// original entity IDs so consent maps still apply.
func Anchor(fragment string, entities []models.DetectedEntity) []models.DetectedEntity {
	var anchored []models.DetectedEntity
	for _, e := range entities {
		if e.Text == "" {
			continue
		}
		offset := 0
		for {
			i := strings.Index(fragment[offset:], e.Text)
			if i < 0 {
				break
			}
			copied := e
			copied.Start = offset + i
			copied.End = copied.Start + len(e.Text)
			anchored = append(anchored, copied)
			offset = copied.End
		}
	}
	return anchored
}

// HasHighRisk reports whether any entity carries the high tier.
func HasHighRisk(entities []models.DetectedEntity) bool {
	for _, e := range entities {
		if e.Risk == models.RiskHigh {
			return true
		}
	}
	return false
}
