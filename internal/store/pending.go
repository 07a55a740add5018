package store

import (
	"context"
	"sync"
	"time"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

// MemoryPendingStore is an in-memory pending-consent store. Resolution
// is a compare-and-set under the store mutex: exactly one of any set of
// concurrent resolutions wins, the rest get ErrAlreadyResolved.
type MemoryPendingStore struct {
	mu      sync.Mutex
	records map[string]*models.PendingConsentRecord
}

// Compile-time check.
var _ PendingStore = (*MemoryPendingStore)(nil)

// NewMemoryPendingStore creates an empty pending store.
func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{records: make(map[string]*models.PendingConsentRecord)}
}

func pendingKey(userID, id string) string {
	return userID + "/" + id
}

// Create stores a new pending record.
func (s *MemoryPendingStore) Create(ctx context.Context, rec models.PendingConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := rec
	s.records[pendingKey(rec.UserID, rec.ID)] = &copied
	return nil
}

// Get returns a record by ID.
func (s *MemoryPendingStore) Get(ctx context.Context, userID, id string) (*models.PendingConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[pendingKey(userID, id)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

// ListPending returns the user's unresolved records.
func (s *MemoryPendingStore) ListPending(ctx context.Context, userID string) ([]models.PendingConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PendingConsentRecord
	for _, rec := range s.records {
		if rec.UserID == userID && rec.Resolution == models.ResolutionPending {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// Resolve transitions pending → state via compare-and-set.
func (s *MemoryPendingStore) Resolve(ctx context.Context, userID, id string, state models.ResolutionState, at time.Time) (*models.PendingConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[pendingKey(userID, id)]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Resolution != models.ResolutionPending {
		return nil, ErrAlreadyResolved
	}
	rec.Resolution = state
	resolved := at
	rec.Resolved = &resolved

	copied := *rec
	return &copied, nil
}

// ListPendingOlderThan returns unresolved records created before cutoff.
func (s *MemoryPendingStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PendingConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PendingConsentRecord
	for _, rec := range s.records {
		if rec.Resolution == models.ResolutionPending && rec.Created.Before(cutoff) {
			out = append(out, *rec)
		}
	}
	return out, nil
}
