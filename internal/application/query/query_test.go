package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
)

type stubRepo struct {
	batches   map[uuid.UUID]*normalization.Batch
	summaries []normalization.Summary
	lastLimit int
}

func (r *stubRepo) Save(context.Context, *normalization.Batch) error { return nil }

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*normalization.Batch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrBatchNotFound
	}
	return b, nil
}

func (r *stubRepo) ListRecent(_ context.Context, limit int) ([]normalization.Summary, error) {
	r.lastLimit = limit
	return r.summaries, nil
}

func sampleBatch() *normalization.Batch {
	b := normalization.NewBatch("app.log", time.Date(2018, 4, 13, 0, 0, 0, 0, time.UTC))
	for _, in := range []string{"2018-04-13T09:39:21Z", "nope", "2018/04/13 09:39:21", "13.04.2018"} {
		b.Append(in, normalization.Parse(in))
	}
	return b
}

func TestGetBatch(t *testing.T) {
	b := sampleBatch()
	repo := &stubRepo{batches: map[uuid.UUID]*normalization.Batch{b.ID: b}}
	h := NewGetBatchHandler(repo)
	ctx := context.Background()

	res, err := h.Handle(ctx, GetBatchQuery{ID: b.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, b.Summary(), res.Summary)
	assert.Len(t, res.Records, 4)

	res, err = h.Handle(ctx, GetBatchQuery{ID: " " + b.ID.String() + " ", OnlyUnmatched: true})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.Records[0].Position)
	assert.Equal(t, 3, res.Records[1].Position)
}

func TestGetBatch_Errors(t *testing.T) {
	h := NewGetBatchHandler(&stubRepo{})
	ctx := context.Background()

	_, err := h.Handle(ctx, GetBatchQuery{ID: "batch-1"})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
	assert.ErrorIs(t, err, shared.ErrInvalidBatchID)
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, GetBatchQuery{ID: uuid.NewString()})
	assert.ErrorIs(t, err, shared.ErrBatchNotFound)
	assert.True(t, shared.IsNotFound(err))
}

func TestListBatches_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, defaultListLimit},
		{"explicit", 5, 5},
		{"capped", 1000, maxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{summaries: []normalization.Summary{sampleBatch().Summary()}}
			res, err := NewListBatchesHandler(repo).Handle(context.Background(), ListBatchesQuery{Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo.lastLimit)
			assert.Len(t, res.Batches, 1)
		})
	}

	_, err := NewListBatchesHandler(&stubRepo{}).Handle(context.Background(), ListBatchesQuery{Limit: -1})
	assert.ErrorIs(t, err, shared.ErrInvalidListLimit)
}
