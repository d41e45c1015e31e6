// Package memory provides an in-process normalization.Repository used when
// no database is configured. Batches live only as long as the process.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
)

// BatchRepository implements normalization.Repository in memory.
type BatchRepository struct {
	mu      sync.RWMutex
	batches map[uuid.UUID]*normalization.Batch
	order   []uuid.UUID // insertion order
}

// NewBatchRepository creates an empty repository.
func NewBatchRepository() *BatchRepository {
	return &BatchRepository{
		batches: make(map[uuid.UUID]*normalization.Batch),
	}
}

// Save stores a copy of batch.
func (r *BatchRepository) Save(ctx context.Context, batch *normalization.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batches[batch.ID]; exists {
		return shared.ErrBatchExists
	}
	r.batches[batch.ID] = clone(batch)
	r.order = append(r.order, batch.ID)
	return nil
}

// GetByID returns a copy of the stored batch.
func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*normalization.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrBatchNotFound
	}
	return clone(b), nil
}

// ListRecent returns summaries ordered by creation time, newest first.
// Batches created at the same instant keep reverse insertion order.
func (r *BatchRepository) ListRecent(ctx context.Context, limit int) ([]normalization.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, shared.ErrInvalidListLimit
	}

	r.mu.RLock()
	summaries := make([]normalization.Summary, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		summaries = append(summaries, r.batches[r.order[i]].Summary())
	}
	r.mu.RUnlock()

	slices.SortStableFunc(summaries, func(a, b normalization.Summary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func clone(b *normalization.Batch) *normalization.Batch {
	return normalization.RestoreBatch(b.ID, b.Source, b.CreatedAt, b.Records)
}
