package consent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/memgate-go/internal/models"
	"github.com/raphaelgruber/memgate-go/internal/store"
)

// recordingDurable captures durable writes for assertions.
type recordingDurable struct {
	mu   sync.Mutex
	puts []models.ComponentRecord
}

func (d *recordingDurable) Put(ctx context.Context, userID string, rec models.ComponentRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.puts = append(d.puts, rec)
	return nil
}

func (d *recordingDurable) SimilaritySearch(ctx context.Context, userID, query string, k int) ([]models.ComponentRecord, error) {
	return nil, nil
}

func (d *recordingDurable) Delete(ctx context.Context, userID, id string) error {
	return nil
}

func (d *recordingDurable) records() []models.ComponentRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.ComponentRecord, len(d.puts))
	copy(out, d.puts)
	return out
}

func pendingFixture(t *testing.T, pending store.PendingStore, created time.Time) models.PendingConsentRecord {
	t.Helper()

	content := "my therapist Dr. Lee suggested journaling"
	person := entityAt(content, "Dr. Lee", "person", models.RiskHigh)

	rec := models.PendingConsentRecord{
		ID:     "pending-1",
		UserID: "user-1",
		Component: models.MemoryComponent{
			ItemID:         "item-1",
			Index:          0,
			Content:        content,
			Category:       models.SignificanceEmotionalInsight,
			Level:          models.LevelHigh,
			Recommendation: models.RecommendProbablySave,
		},
		EphemeralID: "eph-1",
		Entities:    []models.DetectedEntity{person},
		Created:     created,
		Resolution:  models.ResolutionPending,
	}
	require.NoError(t, pending.Create(context.Background(), rec))
	return rec
}

func TestApprovePerformsDeferredWrite(t *testing.T) {
	ctx := context.Background()
	pending := store.NewMemoryPendingStore()
	durable := &recordingDurable{}
	ephemeral := store.NewMemoryEphemeralStore(10)

	rec := pendingFixture(t, pending, time.Now())
	require.NoError(t, ephemeral.Put(ctx, rec.UserID, models.ComponentRecord{
		ID: rec.EphemeralID, UserID: rec.UserID, PendingConsent: true,
	}))

	l := NewLifecycle(pending, durable, ephemeral, nil)

	stored, err := l.Approve(ctx, rec.UserID, rec.ID, models.ConsentMap{})
	require.NoError(t, err)

	// No explicit choice for the person entity: durable defaults redact.
	assert.Equal(t, "my therapist <PERSON> suggested journaling", stored.Content)
	assert.True(t, stored.RiskFlags.HasHighRiskPII)
	assert.Equal(t, models.StorageDurable, stored.StorageType)

	puts := durable.records()
	require.Len(t, puts, 1)
	assert.Equal(t, stored.ID, puts[0].ID)

	resolved, err := pending.Get(ctx, rec.UserID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionApproved, resolved.Resolution)
	require.NotNil(t, resolved.Resolved)

	// The ephemeral counterpart's pending flag is cleared.
	ephRecs, err := ephemeral.List(ctx, rec.UserID)
	require.NoError(t, err)
	require.Len(t, ephRecs, 1)
	assert.False(t, ephRecs[0].PendingConsent)
}

func TestApproveHonorsExplicitKeep(t *testing.T) {
	ctx := context.Background()
	pending := store.NewMemoryPendingStore()
	durable := &recordingDurable{}

	rec := pendingFixture(t, pending, time.Now())
	l := NewLifecycle(pending, durable, nil, nil)

	stored, err := l.Approve(ctx, rec.UserID, rec.ID, models.ConsentMap{
		rec.Entities[0].ID: models.ConsentKeep,
	})
	require.NoError(t, err)
	assert.Contains(t, stored.Content, "Dr. Lee")
}

func TestDenyWritesNothingDurable(t *testing.T) {
	ctx := context.Background()
	pending := store.NewMemoryPendingStore()
	durable := &recordingDurable{}

	rec := pendingFixture(t, pending, time.Now())
	l := NewLifecycle(pending, durable, nil, nil)

	require.NoError(t, l.Deny(ctx, rec.UserID, rec.ID))
	assert.Empty(t, durable.records())

	resolved, err := pending.Get(ctx, rec.UserID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionDenied, resolved.Resolution)
}

func TestResolveIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	pending := store.NewMemoryPendingStore()
	durable := &recordingDurable{}

	rec := pendingFixture(t, pending, time.Now())
	l := NewLifecycle(pending, durable, nil, nil)

	_, err := l.Approve(ctx, rec.UserID, rec.ID, nil)
	require.NoError(t, err)

	err = l.Deny(ctx, rec.UserID, rec.ID)
	assert.ErrorIs(t, err, store.ErrAlreadyResolved)

	_, err = l.Approve(ctx, rec.UserID, rec.ID, nil)
	assert.ErrorIs(t, err, store.ErrAlreadyResolved)
}

func TestConcurrentResolutionsExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	pending := store.NewMemoryPendingStore()
	durable := &recordingDurable{}

	rec := pendingFixture(t, pending, time.Now())
	l := NewLifecycle(pending, durable, nil, nil)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = l.Approve(ctx, rec.UserID, rec.ID, nil)
			} else {
				errs[i] = l.Deny(ctx, rec.UserID, rec.ID)
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, store.ErrAlreadyResolved)
		}
	}
	assert.Equal(t, 1, wins, "exactly one resolution may win")
	assert.LessOrEqual(t, len(durable.records()), 1)
}

func TestApproveUnknownRecord(t *testing.T) {
	l := NewLifecycle(store.NewMemoryPendingStore(), &recordingDurable{}, nil, nil)

	_, err := l.Approve(context.Background(), "user-1", "nope", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSweepExpiresOnlyStaleRecords(t *testing.T) {
	ctx := context.Background()
	pending := store.NewMemoryPendingStore()
	durable := &recordingDurable{}

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	stale := pendingFixture(t, pending, now.Add(-8*24*time.Hour))

	fresh := stale
	fresh.ID = "pending-2"
	fresh.Created = now.Add(-time.Hour)
	require.NoError(t, pending.Create(ctx, fresh))

	l := NewLifecycle(pending, durable, nil, nil).
		WithClock(func() time.Time { return now })

	expired, err := l.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Empty(t, durable.records(), "expiry is an implicit deny")

	got, err := pending.Get(ctx, stale.UserID, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionExpired, got.Resolution)

	got, err = pending.Get(ctx, fresh.UserID, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionPending, got.Resolution)

	// Approving an expired record fails closed.
	_, err = l.Approve(ctx, stale.UserID, stale.ID, nil)
	assert.ErrorIs(t, err, store.ErrAlreadyResolved)

	// A second sweep finds nothing new.
	expired, err = l.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestSweepWindowBoundary(t *testing.T) {
	ctx := context.Background()
	pending := store.NewMemoryPendingStore()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	rec := pendingFixture(t, pending, now.Add(-DefaultWindow+time.Minute))

	l := NewLifecycle(pending, &recordingDurable{}, nil, nil).
		WithClock(func() time.Time { return now })

	expired, err := l.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired, "records inside the window stay pending")

	got, err := pending.Get(ctx, rec.UserID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionPending, got.Resolution)
}
