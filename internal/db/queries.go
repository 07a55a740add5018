package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

// memoryRow is the flat table shape of a durable component record.
type memoryRow struct {
	ID                    surrealmodels.RecordID `json:"id"`
	UserID                string                 `json:"user_id"`
	Content               string                 `json:"content"`
	SourceItemID          string                 `json:"source_item_id"`
	ComponentIndex        int                    `json:"component_index"`
	StorageType           string                 `json:"storage_type"`
	HasPII                bool                   `json:"has_pii"`
	HasHighRiskPII        bool                   `json:"has_high_risk_pii"`
	DetectedEntityIDs     []string               `json:"detected_entity_ids"`
	SignificanceCategory  string                 `json:"significance_category"`
	SignificanceLevel     string                 `json:"significance_level"`
	StorageRecommendation string                 `json:"storage_recommendation"`
	PendingConsent        bool                   `json:"pending_consent"`
	Embedding             []float32              `json:"embedding,omitempty"`
	Timestamp             time.Time              `json:"timestamp"`
}

func (r memoryRow) toRecord() (models.ComponentRecord, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.ComponentRecord{}, err
	}
	return models.ComponentRecord{
		ID:             id,
		UserID:         r.UserID,
		Content:        r.Content,
		SourceItemID:   r.SourceItemID,
		ComponentIndex: r.ComponentIndex,
		StorageType:    models.StorageType(r.StorageType),
		RiskFlags: models.RiskFlags{
			HasPII:            r.HasPII,
			HasHighRiskPII:    r.HasHighRiskPII,
			DetectedEntityIDs: r.DetectedEntityIDs,
		},
		Significance: models.Significance{
			Category:       models.SignificanceCategory(r.SignificanceCategory),
			Level:          models.SignificanceLevel(r.SignificanceLevel),
			Recommendation: models.StorageRecommendation(r.StorageRecommendation),
		},
		PendingConsent: r.PendingConsent,
		Embedding:      r.Embedding,
		Timestamp:      r.Timestamp,
	}, nil
}

// PutMemory stores a durable component record with its embedding.
func (c *Client) PutMemory(ctx context.Context, rec models.ComponentRecord) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("memory", $id) CONTENT {
			user_id: $user_id,
			content: $content,
			source_item_id: $source_item_id,
			component_index: $component_index,
			storage_type: $storage_type,
			has_pii: $has_pii,
			has_high_risk_pii: $has_high_risk_pii,
			detected_entity_ids: $detected_entity_ids,
			significance_category: $significance_category,
			significance_level: $significance_level,
			storage_recommendation: $storage_recommendation,
			pending_consent: $pending_consent,
			embedding: $embedding,
			timestamp: $timestamp
		}
	`, map[string]any{
		"id":                     rec.ID,
		"user_id":                rec.UserID,
		"content":                rec.Content,
		"source_item_id":         rec.SourceItemID,
		"component_index":        rec.ComponentIndex,
		"storage_type":           string(rec.StorageType),
		"has_pii":                rec.RiskFlags.HasPII,
		"has_high_risk_pii":      rec.RiskFlags.HasHighRiskPII,
		"detected_entity_ids":    rec.RiskFlags.DetectedEntityIDs,
		"significance_category":  string(rec.Significance.Category),
		"significance_level":     string(rec.Significance.Level),
		"storage_recommendation": string(rec.Significance.Recommendation),
		"pending_consent":        rec.PendingConsent,
		"embedding":              rec.Embedding,
		"timestamp":              rec.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("put memory: %w", wrapQueryError(err))
	}
	return nil
}

// SearchMemories performs per-user vector similarity search over the
// durable tier.
func (c *Client) SearchMemories(ctx context.Context, userID string, embedding []float32, k int) ([]models.ComponentRecord, error) {
	if k <= 0 {
		k = 5
	}
	// KNN operand must be a literal; ef=40 for recall.
	sql := fmt.Sprintf(`
		SELECT * FROM memory
		WHERE user_id = $user AND embedding <|%d,40|> $emb
	`, k)

	results, err := surrealdb.Query[[]memoryRow](ctx, c.db, sql, map[string]any{
		"user": userID,
		"emb":  embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.ComponentRecord{}, nil
	}
	rows := (*results)[0].Result
	records := make([]models.ComponentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("search memories: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// DeleteMemory removes a durable record, scoped to the owning user.
func (c *Client) DeleteMemory(ctx context.Context, userID, id string) error {
	results, err := surrealdb.Query[[]memoryRow](ctx, c.db, `
		DELETE type::record("memory", $id) WHERE user_id = $user RETURN BEFORE
	`, map[string]any{"id": id, "user": userID})
	if err != nil {
		return fmt.Errorf("delete memory: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("delete memory %s: %w", id, ErrNotFound)
	}
	return nil
}

// pendingRow is the table shape of a pending consent record.
type pendingRow struct {
	ID          surrealmodels.RecordID  `json:"id"`
	UserID      string                  `json:"user_id"`
	Component   models.MemoryComponent  `json:"component"`
	EphemeralID *string                 `json:"ephemeral_id,omitempty"`
	Entities    []models.DetectedEntity `json:"entities"`
	Created     time.Time               `json:"created"`
	Resolution  string                  `json:"resolution"`
	Resolved    *time.Time              `json:"resolved,omitempty"`
}

func (r pendingRow) toRecord() (models.PendingConsentRecord, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.PendingConsentRecord{}, err
	}
	rec := models.PendingConsentRecord{
		ID:         id,
		UserID:     r.UserID,
		Component:  r.Component,
		Entities:   r.Entities,
		Created:    r.Created,
		Resolution: models.ResolutionState(r.Resolution),
		Resolved:   r.Resolved,
	}
	if r.EphemeralID != nil {
		rec.EphemeralID = *r.EphemeralID
	}
	return rec, nil
}

// CreatePending stores a new pending consent record.
func (c *Client) CreatePending(ctx context.Context, rec models.PendingConsentRecord) error {
	vars := map[string]any{
		"id":         rec.ID,
		"user_id":    rec.UserID,
		"component":  rec.Component,
		"entities":   rec.Entities,
		"created":    rec.Created,
		"resolution": string(rec.Resolution),
	}
	if rec.EphemeralID != "" {
		vars["ephemeral_id"] = rec.EphemeralID
	} else {
		vars["ephemeral_id"] = nil
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("pending_consent", $id) CONTENT {
			user_id: $user_id,
			component: $component,
			ephemeral_id: $ephemeral_id,
			entities: $entities,
			created: $created,
			resolution: $resolution
		}
	`, vars)
	if err != nil {
		return fmt.Errorf("create pending consent: %w", wrapQueryError(err))
	}
	return nil
}

// GetPending retrieves a pending consent record by ID, scoped to the
// owning user. Returns ErrNotFound if absent.
func (c *Client) GetPending(ctx context.Context, userID, id string) (*models.PendingConsentRecord, error) {
	results, err := surrealdb.Query[[]pendingRow](ctx, c.db, `
		SELECT * FROM type::record("pending_consent", $id) WHERE user_id = $user
	`, map[string]any{"id": id, "user": userID})
	if err != nil {
		return nil, fmt.Errorf("get pending consent: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("pending consent %s: %w", id, ErrNotFound)
	}
	rec, err := (*results)[0].Result[0].toRecord()
	if err != nil {
		return nil, fmt.Errorf("get pending consent: %w", err)
	}
	return &rec, nil
}

// ListPendingByUser returns the user's unresolved records.
func (c *Client) ListPendingByUser(ctx context.Context, userID string) ([]models.PendingConsentRecord, error) {
	results, err := surrealdb.Query[[]pendingRow](ctx, c.db, `
		SELECT * FROM pending_consent
		WHERE user_id = $user AND resolution = 'pending'
		ORDER BY created ASC
	`, map[string]any{"user": userID})
	if err != nil {
		return nil, fmt.Errorf("list pending consent: %w", wrapQueryError(err))
	}
	return pendingRecords(results)
}

// ResolvePending transitions pending → state using a conditional update
// so concurrent resolutions cannot both win. Returns ErrAlreadyResolved
// when the record exists but is terminal.
func (c *Client) ResolvePending(ctx context.Context, userID, id string, state models.ResolutionState, at time.Time) (*models.PendingConsentRecord, error) {
	results, err := surrealdb.Query[[]pendingRow](ctx, c.db, `
		UPDATE type::record("pending_consent", $id)
		SET resolution = $state, resolved = $at
		WHERE user_id = $user AND resolution = 'pending'
		RETURN AFTER
	`, map[string]any{
		"id":    id,
		"user":  userID,
		"state": string(state),
		"at":    at,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve pending consent: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		rec, err := (*results)[0].Result[0].toRecord()
		if err != nil {
			return nil, fmt.Errorf("resolve pending consent: %w", err)
		}
		return &rec, nil
	}

	// Conditional update matched nothing: missing record or lost race.
	if _, err := c.GetPending(ctx, userID, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("pending consent %s: %w", id, ErrAlreadyResolved)
}

// ListPendingOlderThan returns still-pending records created before the
// cutoff, across all users. Used by the timeout sweep.
func (c *Client) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PendingConsentRecord, error) {
	results, err := surrealdb.Query[[]pendingRow](ctx, c.db, `
		SELECT * FROM pending_consent
		WHERE resolution = 'pending' AND created < $cutoff
	`, map[string]any{"cutoff": cutoff})
	if err != nil {
		return nil, fmt.Errorf("list stale pending consent: %w", wrapQueryError(err))
	}
	return pendingRecords(results)
}

func pendingRecords(results *[]surrealdb.QueryResult[[]pendingRow]) ([]models.PendingConsentRecord, error) {
	if results == nil || len(*results) == 0 {
		return []models.PendingConsentRecord{}, nil
	}
	rows := (*results)[0].Result
	records := make([]models.PendingConsentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
