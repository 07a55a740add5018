package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/memgate-go/internal/consent"
	"github.com/raphaelgruber/memgate-go/internal/metrics"
	"github.com/raphaelgruber/memgate-go/internal/models"
	"github.com/raphaelgruber/memgate-go/internal/recognition"
	"github.com/raphaelgruber/memgate-go/internal/retry"
	"github.com/raphaelgruber/memgate-go/internal/risk"
	"github.com/raphaelgruber/memgate-go/internal/router"
	"github.com/raphaelgruber/memgate-go/internal/significance"
	"github.com/raphaelgruber/memgate-go/internal/store"
)

// scorerFunc adapts a function to the significance.Scorer interface.
type scorerFunc func(ctx context.Context, content string) (*significance.ScoreResult, error)

func (f scorerFunc) Score(ctx context.Context, content string) (*significance.ScoreResult, error) {
	return f(ctx, content)
}

// memoryDurable is an in-memory durable store for handler tests.
type memoryDurable struct {
	mu   sync.Mutex
	recs map[string][]models.ComponentRecord
}

func newMemoryDurable() *memoryDurable {
	return &memoryDurable{recs: make(map[string][]models.ComponentRecord)}
}

func (d *memoryDurable) Put(ctx context.Context, userID string, rec models.ComponentRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recs[userID] = append(d.recs[userID], rec)
	return nil
}

func (d *memoryDurable) SimilaritySearch(ctx context.Context, userID, query string, k int) ([]models.ComponentRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	recs := d.recs[userID]
	if len(recs) > k {
		recs = recs[:k]
	}
	out := make([]models.ComponentRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (d *memoryDurable) Delete(ctx context.Context, userID, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	recs := d.recs[userID]
	for i := range recs {
		if recs[i].ID == id {
			d.recs[userID] = append(recs[:i:i], recs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func testDeps(t *testing.T) *Dependencies {
	t.Helper()

	scorer := scorerFunc(func(ctx context.Context, content string) (*significance.ScoreResult, error) {
		return &significance.ScoreResult{Components: []significance.ScoredComponent{{
			Content:               content,
			SignificanceCategory:  "emotional_insight",
			SignificanceLevel:     "high",
			StorageRecommendation: "probably_save",
		}}}, nil
	})

	fastRetry := retry.Policy{MaxRetries: 0, InitialDelay: time.Millisecond}
	classifier := risk.NewClassifier(recognition.NewPatternDetector(), risk.DefaultPolicy(), fastRetry, nil, nil)
	decomposer := significance.NewDecomposer(scorer, time.Second, nil)

	ephemeral := store.NewMemoryEphemeralStore(10)
	durable := newMemoryDurable()
	pending := store.NewMemoryPendingStore()
	logger := slog.Default()

	return &Dependencies{
		Router:    router.New(classifier, decomposer, ephemeral, durable, pending, logger, nil),
		Lifecycle: consent.NewLifecycle(pending, durable, ephemeral, logger),
		Ephemeral: ephemeral,
		Durable:   durable,
		Pending:   pending,
		Metrics:   metrics.NewCollector(),
		Logger:    logger,
	}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	return text.Text
}

func TestProcessHandlerValidatesInput(t *testing.T) {
	deps := testDeps(t)
	handler := NewProcessHandler(deps)
	ctx := context.Background()

	result, _, err := handler(ctx, nil, ProcessInput{Content: "hi"})
	require.NoError(t, err)
	assert.True(t, result.IsError, "missing user_id")

	result, _, err = handler(ctx, nil, ProcessInput{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, result.IsError, "missing content")

	result, _, err = handler(ctx, nil, ProcessInput{UserID: "u1", Content: "hi", Type: "voicemail"})
	require.NoError(t, err)
	assert.True(t, result.IsError, "unknown type")

	result, _, err = handler(ctx, nil, ProcessInput{
		UserID: "u1", Content: "hi",
		Consent: map[string]string{"person:0:4": "shred"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError, "unknown consent action")
}

func TestProcessDeferAndResolveFlow(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	process := NewProcessHandler(deps)
	listPending := NewListPendingHandler(deps)
	resolve := NewResolveConsentHandler(deps)
	recall := NewRecallHandler(deps)

	// High-risk message without consent defers the durable write.
	result, _, err := process(ctx, nil, ProcessInput{
		UserID:  "u1",
		Content: "my new therapist's email is lee@clinic.example.com and I feel hopeful",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var routed router.Result
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &routed))
	require.Len(t, routed.Components, 1)
	assert.Equal(t, router.OutcomeDurableDeferred, routed.Components[0].Outcome)
	pendingID := routed.Components[0].PendingConsent
	require.NotEmpty(t, pendingID)

	// The deferral is visible in list_pending.
	result, _, err = listPending(ctx, nil, ListPendingInput{UserID: "u1"})
	require.NoError(t, err)
	var entries []PendingEntry
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, pendingID, entries[0].RecordID)
	require.NotEmpty(t, entries[0].Entities)
	emailID := entries[0].Entities[0].ID

	// Approve, anonymizing the email.
	result, _, err = resolve(ctx, nil, ResolveConsentInput{
		UserID:    "u1",
		RecordID:  pendingID,
		Action:    "approve",
		Decisions: map[string]string{emailID: "anonymize"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resolution ResolveConsentResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &resolution))
	assert.Equal(t, "approved", resolution.Resolution)
	assert.NotContains(t, resolution.Content, "lee@clinic.example.com")
	assert.Contains(t, resolution.Content, "<EMAIL>")

	// The durable record is recallable.
	result, _, err = recall(ctx, nil, RecallInput{UserID: "u1", Query: "therapist"})
	require.NoError(t, err)
	var recalled []RecallEntry
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &recalled))
	require.Len(t, recalled, 1)
	assert.Equal(t, resolution.DurableID, recalled[0].ID)

	// A second resolution reports the terminal state.
	result, _, err = resolve(ctx, nil, ResolveConsentInput{
		UserID: "u1", RecordID: pendingID, Action: "deny",
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "already resolved")
}

func TestResolveConsentUnknownRecord(t *testing.T) {
	deps := testDeps(t)
	resolve := NewResolveConsentHandler(deps)

	result, _, err := resolve(context.Background(), nil, ResolveConsentInput{
		UserID: "u1", RecordID: "nope", Action: "deny",
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "not found")
}

func TestContextHandlerReturnsEphemeralTier(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	process := NewProcessHandler(deps)
	getContext := NewContextHandler(deps)

	_, _, err := process(ctx, nil, ProcessInput{UserID: "u1", Content: "just thinking out loud"})
	require.NoError(t, err)

	result, _, err := getContext(ctx, nil, ContextInput{UserID: "u1"})
	require.NoError(t, err)
	var entries []ContextEntry
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "just thinking out loud", entries[0].Content)
}

func TestForgetHandler(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	require.NoError(t, deps.Durable.Put(ctx, "u1", models.ComponentRecord{ID: "m1", Content: "bye"}))

	forget := NewForgetHandler(deps)
	result, _, err := forget(ctx, nil, ForgetInput{UserID: "u1", ID: "m1"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, _, err = forget(ctx, nil, ForgetInput{UserID: "u1", ID: "m1"})
	require.NoError(t, err)
	assert.True(t, result.IsError, "second delete reports not found")

	result, _, err = forget(ctx, nil, ForgetInput{UserID: "u1", ID: "x", Tier: "attic"})
	require.NoError(t, err)
	assert.True(t, result.IsError, "unknown tier")
}

func TestStatsHandler(t *testing.T) {
	deps := testDeps(t)
	deps.Metrics.RecordTiming(metrics.OpSearch, 5*time.Millisecond)

	stats := NewStatsHandler(deps)
	result, _, err := stats(context.Background(), nil, StatsInput{})
	require.NoError(t, err)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &snap))
	require.NotNil(t, snap.Search)
	assert.Equal(t, int64(1), snap.Search.Count)
}
