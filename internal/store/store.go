// Package store defines the storage interfaces consumed by the routing
// engine, plus in-memory implementations of the ephemeral and pending
// tiers. SurrealDB-backed durable and pending stores live in
// internal/store with the db client underneath.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyResolved is returned when a consent resolution loses the
// compare-and-set against a record that is no longer pending.
var ErrAlreadyResolved = errors.New("consent record already resolved")

// EphemeralStore is the short-lived, personalization-biased tier.
// Capacity limits are a store-level concern, not enforced by the router.
type EphemeralStore interface {
	Put(ctx context.Context, userID string, rec models.ComponentRecord) error
	List(ctx context.Context, userID string) ([]models.ComponentRecord, error)
	Delete(ctx context.Context, userID, id string) error
	// SetPendingConsent patches the pending flag on a stored record.
	// Used by the consent lifecycle when a deferred decision resolves.
	SetPendingConsent(ctx context.Context, userID, id string, pending bool) error
}

// DurableStore is the long-lived, privacy-conservative tier. Put
// computes the record's embedding as part of the write.
type DurableStore interface {
	Put(ctx context.Context, userID string, rec models.ComponentRecord) error
	SimilaritySearch(ctx context.Context, userID, query string, k int) ([]models.ComponentRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

// PendingStore tracks deferred durable-storage decisions. Resolve must
// be a compare-and-set against the pending state so concurrent
// resolutions and the timeout sweep cannot double-fire.
type PendingStore interface {
	Create(ctx context.Context, rec models.PendingConsentRecord) error
	Get(ctx context.Context, userID, id string) (*models.PendingConsentRecord, error)
	ListPending(ctx context.Context, userID string) ([]models.PendingConsentRecord, error)
	// Resolve transitions pending → state, recording the resolution
	// time. Returns ErrAlreadyResolved if the record is terminal and
	// ErrNotFound if it does not exist.
	Resolve(ctx context.Context, userID, id string, state models.ResolutionState, at time.Time) (*models.PendingConsentRecord, error)
	// ListPendingOlderThan returns still-pending records created before
	// the cutoff, across all users. Used by the timeout sweep.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PendingConsentRecord, error)
}
