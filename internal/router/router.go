// Package router implements the dual-storage routing decision engine.
// For each component of an inbound memory item it decides ephemeral
// placement, durable placement, and whether durable placement must be
// deferred pending explicit consent.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/memgate-go/internal/consent"
	"github.com/raphaelgruber/memgate-go/internal/metrics"
	"github.com/raphaelgruber/memgate-go/internal/models"
	"github.com/raphaelgruber/memgate-go/internal/risk"
	"github.com/raphaelgruber/memgate-go/internal/significance"
	"github.com/raphaelgruber/memgate-go/internal/store"
)

// Outcome is the terminal durable-tier state of one routed component.
type Outcome string

const (
	OutcomeDurableStored   Outcome = "durable_stored"
	OutcomeDurableDeferred Outcome = "durable_deferred"
	OutcomeDurableSkipped  Outcome = "durable_skipped"
)

// Options tunes one routing invocation.
type Options struct {
	// Consent is the caller-supplied consent map. Nil means no consent
	// was supplied, which arms the deferral gate for conversational
	// items.
	Consent models.ConsentMap
	// ExemptAssistant skips ephemeral placement for assistant-authored
	// items. Assistant content is never durably stored either way.
	ExemptAssistant bool
}

// ComponentResult describes where one component ended up.
type ComponentResult struct {
	Component       models.MemoryComponent `json:"component"`
	Outcome         Outcome                `json:"outcome"`
	EphemeralID     string                 `json:"ephemeral_id,omitempty"`
	DurableID       string                 `json:"durable_id,omitempty"`
	PendingConsent  string                 `json:"pending_consent_id,omitempty"`
	EphemeralStored bool                   `json:"ephemeral_stored"`
}

// Result is the full routing outcome for one memory item.
type Result struct {
	ItemID     string                  `json:"item_id"`
	Entities   []models.DetectedEntity `json:"entities"`
	Components []ComponentResult       `json:"components"`
	// Degraded is set when the ephemeral write failed: the conversation
	// continues, but this turn is not cached.
	Degraded bool `json:"degraded,omitempty"`
}

// Router is the consent-aware dual-storage routing engine. It holds no
// internal goroutines; invoke it synchronously per inbound message.
// Invocations for different users are safe to run concurrently.
type Router struct {
	classifier *risk.Classifier
	decomposer *significance.Decomposer
	ephemeral  store.EphemeralStore
	durable    store.DurableStore
	pending    store.PendingStore
	logger     *slog.Logger
	metrics    *metrics.Collector
	now        func() time.Time
}

// New creates a router. Nil logger falls back to slog.Default; nil
// metrics disables recording.
func New(classifier *risk.Classifier, decomposer *significance.Decomposer, ephemeral store.EphemeralStore, durable store.DurableStore, pending store.PendingStore, logger *slog.Logger, collector *metrics.Collector) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		classifier: classifier,
		decomposer: decomposer,
		ephemeral:  ephemeral,
		durable:    durable,
		pending:    pending,
		logger:     logger,
		metrics:    collector,
		now:        time.Now,
	}
}

// WithClock injects a clock for deterministic tests.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// Route runs the full pipeline for one memory item: classify entities,
// decompose into components, then place each component. Collaborator
// and store failures degrade toward "store less, redact more"; Route
// only errors on misuse.
func (r *Router) Route(ctx context.Context, item *models.MemoryItem, opts Options) (*Result, error) {
	if item == nil {
		return nil, fmt.Errorf("route: nil item")
	}
	if item.UserID == "" {
		return nil, fmt.Errorf("route: item %s has no user", item.ID)
	}
	if !item.Type.IsValid() {
		return nil, fmt.Errorf("route: unknown item type %q", item.Type)
	}

	entities := r.classifier.Classify(ctx, item.Content)
	if unknown := consent.UnknownReferences(opts.Consent, entities); len(unknown) > 0 {
		r.logger.Warn("consent map references unknown entities, dropping",
			"item", item.ID, "unknown", unknown)
	}

	components := r.decomposer.Decompose(ctx, item)

	result := &Result{ItemID: item.ID, Entities: entities}
	for _, comp := range components {
		// Empty components are dropped before any placement.
		if comp.Content == "" {
			continue
		}
		result.Components = append(result.Components, r.routeComponent(ctx, item, comp, entities, opts, result))
	}
	return result, nil
}

// routeComponent runs the per-component state machine:
// new → ephemeral-stored → durable-evaluated → stored|deferred|skipped.
func (r *Router) routeComponent(ctx context.Context, item *models.MemoryItem, comp models.MemoryComponent, itemEntities []models.DetectedEntity, opts Options, result *Result) ComponentResult {
	res := ComponentResult{Component: comp}

	// Entity offsets are item-relative; re-anchor them against the
	// component's extracted text.
	entities := risk.Anchor(comp.Content, itemEntities)
	hasHigh := risk.HasHighRisk(entities)

	// Durable decision first, so the ephemeral record can carry the
	// should-store-durable prediction and pending flag for the
	// lifecycle manager.
	eligible := comp.Category.Lasting() && comp.Recommendation.Favorable()
	deferred := false
	switch {
	case item.Type.Assistant():
		// Durable memory is user-experience-only.
		res.Outcome = OutcomeDurableSkipped
	case !eligible:
		res.Outcome = OutcomeDurableSkipped
	case item.Type.Conversational() && hasHigh && opts.Consent == nil:
		res.Outcome = OutcomeDurableDeferred
		deferred = true
	default:
		res.Outcome = OutcomeDurableStored
	}

	// Step 1: ephemeral placement, near-unconditional.
	ephemeralID := ""
	if !(item.Type.Assistant() && opts.ExemptAssistant) {
		rec := r.buildRecord(item, comp, entities, models.StorageEphemeral,
			consent.Resolve(comp.Content, consent.DestinationEphemeral, opts.Consent, entities))
		rec.PendingConsent = deferred
		ephemeralID = rec.ID

		start := time.Now()
		if err := r.ephemeral.Put(ctx, item.UserID, rec); err != nil {
			// Availability-critical path, but the conversation goes on.
			r.logger.Warn("ephemeral write failed, turn not cached",
				"item", item.ID, "component", comp.Index, "error", err)
			result.Degraded = true
			ephemeralID = ""
		} else {
			res.EphemeralID = rec.ID
			res.EphemeralStored = true
		}
		if r.metrics != nil {
			r.metrics.RecordTiming(metrics.OpEphemeralWrite, time.Since(start))
		}
	}

	switch res.Outcome {
	case OutcomeDurableDeferred:
		pendingRec := models.PendingConsentRecord{
			ID:          uuid.NewString(),
			UserID:      item.UserID,
			Component:   comp,
			EphemeralID: ephemeralID,
			Entities:    entities,
			Created:     r.now(),
			Resolution:  models.ResolutionPending,
		}
		if err := r.pending.Create(ctx, pendingRec); err != nil {
			// Without a pending record the deferral cannot resolve;
			// degrade to skipped rather than store unconsented PII.
			r.logger.Error("failed to create pending consent record",
				"item", item.ID, "component", comp.Index, "error", err)
			res.Outcome = OutcomeDurableSkipped
			return res
		}
		res.PendingConsent = pendingRec.ID
		r.logger.Info("durable write deferred pending consent",
			"item", item.ID, "component", comp.Index, "record", pendingRec.ID)

	case OutcomeDurableStored:
		rec := r.buildRecord(item, comp, entities, models.StorageDurable,
			consent.Resolve(comp.Content, consent.DestinationDurable, opts.Consent, entities))

		start := time.Now()
		err := r.durable.Put(ctx, item.UserID, rec)
		if r.metrics != nil {
			r.metrics.RecordTiming(metrics.OpDurableWrite, time.Since(start))
		}
		if err != nil {
			// Best-effort enrichment; the ephemeral write stands.
			r.logger.Warn("durable write failed, not rolled back",
				"item", item.ID, "component", comp.Index, "error", err)
			res.Outcome = OutcomeDurableSkipped
			return res
		}
		res.DurableID = rec.ID
	}

	return res
}

// buildRecord assembles the persisted shape for one destination.
func (r *Router) buildRecord(item *models.MemoryItem, comp models.MemoryComponent, entities []models.DetectedEntity, storage models.StorageType, redacted string) models.ComponentRecord {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}
	return models.ComponentRecord{
		ID:             uuid.NewString(),
		UserID:         item.UserID,
		Content:        redacted,
		SourceItemID:   item.ID,
		ComponentIndex: comp.Index,
		StorageType:    storage,
		RiskFlags: models.RiskFlags{
			HasPII:            len(entities) > 0,
			HasHighRiskPII:    risk.HasHighRisk(entities),
			DetectedEntityIDs: ids,
		},
		Significance: models.Significance{
			Category:       comp.Category,
			Level:          comp.Level,
			Recommendation: comp.Recommendation,
		},
		Timestamp: r.now(),
	}
}
