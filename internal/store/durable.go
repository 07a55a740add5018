package store

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/memgate-go/internal/db"
	"github.com/raphaelgruber/memgate-go/internal/embedding"
	"github.com/raphaelgruber/memgate-go/internal/metrics"
	"github.com/raphaelgruber/memgate-go/internal/models"
)

// SurrealDurableStore is the durable tier backed by SurrealDB. Put
// computes the record's embedding before writing; similarity search
// embeds the query and runs a per-user KNN.
type SurrealDurableStore struct {
	db       *db.Client
	embedder embedding.Embedder
	metrics  *metrics.Collector
}

// Compile-time check.
var _ DurableStore = (*SurrealDurableStore)(nil)

// NewSurrealDurableStore creates the durable store. Nil metrics
// disables recording.
func NewSurrealDurableStore(client *db.Client, embedder embedding.Embedder, collector *metrics.Collector) *SurrealDurableStore {
	return &SurrealDurableStore{db: client, embedder: embedder, metrics: collector}
}

// Put embeds the record content and writes it.
func (s *SurrealDurableStore) Put(ctx context.Context, userID string, rec models.ComponentRecord) error {
	vector, err := s.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return fmt.Errorf("embed component: %w", err)
	}
	rec.UserID = userID
	rec.StorageType = models.StorageDurable
	rec.Embedding = vector

	if err := s.db.PutMemory(ctx, rec); err != nil {
		return err
	}
	return nil
}

// SimilaritySearch returns the k records nearest to the query.
func (s *SurrealDurableStore) SimilaritySearch(ctx context.Context, userID, query string, k int) ([]models.ComponentRecord, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	start := time.Now()
	records, err := s.db.SearchMemories(ctx, userID, vector, k)
	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpSearch, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a record, translating db sentinels to store errors.
func (s *SurrealDurableStore) Delete(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteMemory(ctx, userID, id); err != nil {
		return translateDBErr(err)
	}
	return nil
}
