package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphaelgruber/memgate-go/internal/db"
	"github.com/raphaelgruber/memgate-go/internal/models"
)

// SurrealPendingStore persists pending consent records in SurrealDB so
// deferred decisions survive restarts. The resolution compare-and-set
// is a conditional update against the pending state.
type SurrealPendingStore struct {
	db *db.Client
}

// Compile-time check.
var _ PendingStore = (*SurrealPendingStore)(nil)

// NewSurrealPendingStore creates the store.
func NewSurrealPendingStore(client *db.Client) *SurrealPendingStore {
	return &SurrealPendingStore{db: client}
}

// Create stores a new pending record.
func (s *SurrealPendingStore) Create(ctx context.Context, rec models.PendingConsentRecord) error {
	if err := s.db.CreatePending(ctx, rec); err != nil {
		return translateDBErr(err)
	}
	return nil
}

// Get returns a record by ID.
func (s *SurrealPendingStore) Get(ctx context.Context, userID, id string) (*models.PendingConsentRecord, error) {
	rec, err := s.db.GetPending(ctx, userID, id)
	if err != nil {
		return nil, translateDBErr(err)
	}
	return rec, nil
}

// ListPending returns the user's unresolved records.
func (s *SurrealPendingStore) ListPending(ctx context.Context, userID string) ([]models.PendingConsentRecord, error) {
	return s.db.ListPendingByUser(ctx, userID)
}

// Resolve transitions pending → state via the conditional update.
func (s *SurrealPendingStore) Resolve(ctx context.Context, userID, id string, state models.ResolutionState, at time.Time) (*models.PendingConsentRecord, error) {
	rec, err := s.db.ResolvePending(ctx, userID, id, state, at)
	if err != nil {
		return nil, translateDBErr(err)
	}
	return rec, nil
}

// ListPendingOlderThan returns unresolved records created before cutoff.
func (s *SurrealPendingStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PendingConsentRecord, error) {
	return s.db.ListPendingOlderThan(ctx, cutoff)
}

// translateDBErr maps db sentinels onto the store's error vocabulary
// while preserving the wrapped detail.
func translateDBErr(err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, db.ErrAlreadyResolved):
		return fmt.Errorf("%w: %v", ErrAlreadyResolved, err)
	}
	return err
}
