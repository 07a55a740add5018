package store

import (
	"context"
	"sync"

	"github.com/raphaelgruber/memgate-go/internal/models"
)

// DefaultEphemeralCapacity is the per-user record cap for the in-memory
// ephemeral tier.
const DefaultEphemeralCapacity = 50

// MemoryEphemeralStore is an in-memory, per-user capped ephemeral store.
// The oldest record is evicted when a user's partition is full. Safe for
// concurrent use.
type MemoryEphemeralStore struct {
	mu       sync.RWMutex
	capacity int
	users    map[string][]models.ComponentRecord
}

// Compile-time check.
var _ EphemeralStore = (*MemoryEphemeralStore)(nil)

// NewMemoryEphemeralStore creates a store with the given per-user
// capacity. Zero or negative uses DefaultEphemeralCapacity.
func NewMemoryEphemeralStore(capacity int) *MemoryEphemeralStore {
	if capacity <= 0 {
		capacity = DefaultEphemeralCapacity
	}
	return &MemoryEphemeralStore{
		capacity: capacity,
		users:    make(map[string][]models.ComponentRecord),
	}
}

// Put appends a record, evicting the oldest when over capacity.
func (s *MemoryEphemeralStore) Put(ctx context.Context, userID string, rec models.ComponentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.users[userID], rec)
	if len(records) > s.capacity {
		records = records[len(records)-s.capacity:]
	}
	s.users[userID] = records
	return nil
}

// List returns the user's records, oldest first.
func (s *MemoryEphemeralStore) List(ctx context.Context, userID string) ([]models.ComponentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.users[userID]
	out := make([]models.ComponentRecord, len(records))
	copy(out, records)
	return out, nil
}

// Delete removes a record by ID. Missing records return ErrNotFound.
func (s *MemoryEphemeralStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.users[userID]
	for i := range records {
		if records[i].ID == id {
			s.users[userID] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// SetPendingConsent patches the pending flag on a stored record.
func (s *MemoryEphemeralStore) SetPendingConsent(ctx context.Context, userID, id string, pending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.users[userID]
	for i := range records {
		if records[i].ID == id {
			records[i].PendingConsent = pending
			return nil
		}
	}
	return ErrNotFound
}
