package consent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/memgate-go/internal/models"
	"github.com/raphaelgruber/memgate-go/internal/store"
)

// DefaultWindow is how long a pending record may stay unresolved before
// the sweep expires it with an implicit deny.
const DefaultWindow = 7 * 24 * time.Hour

// Lifecycle manages pending consent records: resolution on user
// decision and expiry of records past the consent window. All state
// transitions go through the pending store's compare-and-set, so a
// record resolves at most once.
type Lifecycle struct {
	pending   store.PendingStore
	durable   store.DurableStore
	ephemeral store.EphemeralStore
	window    time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewLifecycle creates a lifecycle manager with the default window.
func NewLifecycle(pending store.PendingStore, durable store.DurableStore, ephemeral store.EphemeralStore, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		pending:   pending,
		durable:   durable,
		ephemeral: ephemeral,
		window:    DefaultWindow,
		logger:    logger,
		now:       time.Now,
	}
}

// WithWindow overrides the expiry window.
func (l *Lifecycle) WithWindow(window time.Duration) *Lifecycle {
	l.window = window
	return l
}

// WithClock injects a clock for deterministic tests.
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

// Approve resolves a pending record and performs the deferred durable
// write, re-running durable redaction from the component's original
// content with the supplied consent map. Returns the stored record, or
// store.ErrAlreadyResolved when the record is terminal.
func (l *Lifecycle) Approve(ctx context.Context, userID, recordID string, decisions models.ConsentMap) (*models.ComponentRecord, error) {
	rec, err := l.pending.Resolve(ctx, userID, recordID, models.ResolutionApproved, l.now())
	if err != nil {
		return nil, fmt.Errorf("approve consent %s: %w", recordID, err)
	}

	if unknown := UnknownReferences(decisions, rec.Entities); len(unknown) > 0 {
		l.logger.Warn("consent map references unknown entities, dropping",
			"record", recordID, "unknown", unknown)
	}

	redacted := Resolve(rec.Component.Content, DestinationDurable, decisions, rec.Entities)
	durableRec := recordFromPending(rec, redacted, l.now())
	if err := l.durable.Put(ctx, userID, durableRec); err != nil {
		return nil, fmt.Errorf("deferred durable write: %w", err)
	}

	l.clearEphemeralFlag(ctx, rec)
	l.logger.Info("pending consent approved", "record", recordID, "user", userID)
	return &durableRec, nil
}

// Deny resolves a pending record without a durable write.
func (l *Lifecycle) Deny(ctx context.Context, userID, recordID string) error {
	rec, err := l.pending.Resolve(ctx, userID, recordID, models.ResolutionDenied, l.now())
	if err != nil {
		return fmt.Errorf("deny consent %s: %w", recordID, err)
	}

	l.clearEphemeralFlag(ctx, rec)
	l.logger.Info("pending consent denied", "record", recordID, "user", userID)
	return nil
}

// Sweep expires records pending for longer than the window. Expiry is
// an implicit deny: no durable write happens. Each transition is a
// compare-and-set, so a concurrent user decision wins the race and the
// sweep moves on. Returns the number of records expired.
func (l *Lifecycle) Sweep(ctx context.Context) (int, error) {
	cutoff := l.now().Add(-l.window)
	stale, err := l.pending.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale pending records: %w", err)
	}

	expired := 0
	for _, rec := range stale {
		resolved, err := l.pending.Resolve(ctx, rec.UserID, rec.ID, models.ResolutionExpired, l.now())
		if err != nil {
			// Lost the race against a user decision.
			l.logger.Debug("skipping pending record during sweep", "record", rec.ID, "error", err)
			continue
		}
		l.clearEphemeralFlag(ctx, resolved)
		expired++
	}

	if expired > 0 {
		l.logger.Info("consent sweep complete", "expired", expired, "window", l.window)
	}
	return expired, nil
}

// clearEphemeralFlag drops the pending marker from the record's
// ephemeral counterpart. Failure is logged only; the resolution itself
// already happened.
func (l *Lifecycle) clearEphemeralFlag(ctx context.Context, rec *models.PendingConsentRecord) {
	if l.ephemeral == nil || rec.EphemeralID == "" {
		return
	}
	if err := l.ephemeral.SetPendingConsent(ctx, rec.UserID, rec.EphemeralID, false); err != nil {
		l.logger.Warn("failed to clear ephemeral pending flag",
			"record", rec.ID, "ephemeral_id", rec.EphemeralID, "error", err)
	}
}

// recordFromPending builds the durable component record for an approved
// deferral.
func recordFromPending(rec *models.PendingConsentRecord, redacted string, at time.Time) models.ComponentRecord {
	ids := make([]string, 0, len(rec.Entities))
	hasHigh := false
	for _, e := range rec.Entities {
		ids = append(ids, e.ID)
		if e.Risk == models.RiskHigh {
			hasHigh = true
		}
	}
	return models.ComponentRecord{
		ID:             uuid.NewString(),
		UserID:         rec.UserID,
		Content:        redacted,
		SourceItemID:   rec.Component.ItemID,
		ComponentIndex: rec.Component.Index,
		StorageType:    models.StorageDurable,
		RiskFlags: models.RiskFlags{
			HasPII:            len(rec.Entities) > 0,
			HasHighRiskPII:    hasHigh,
			DetectedEntityIDs: ids,
		},
		Significance: models.Significance{
			Category:       rec.Component.Category,
			Level:          rec.Component.Level,
			Recommendation: rec.Component.Recommendation,
		},
		Timestamp: at,
	}
}
