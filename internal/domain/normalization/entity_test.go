package normalization

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
)

func TestBatch_AppendAndCounts(t *testing.T) {
	created := time.Date(2018, 4, 13, 15, 0, 0, 0, time.FixedZone("", 8*3600))
	b := NewBatch("access.log", created)

	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, time.UTC, b.CreatedAt.Location())
	assert.True(t, created.Equal(b.CreatedAt))

	for _, in := range []string{"2018-04-13 09:39:21", "garbage", "2018-04-13T09:39:21Z"} {
		b.Append(in, Parse(in))
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 2, b.Matched())
	assert.Equal(t, 1, b.Unmatched())

	rec, err := b.Record(1)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Position)
	assert.Equal(t, "garbage", rec.Input)
	assert.False(t, rec.Matched)

	_, err = b.Record(3)
	assert.ErrorIs(t, err, shared.ErrRecordOutOfBounds)
	assert.True(t, shared.IsValidation(err))

	s := b.Summary()
	assert.Equal(t, b.ID, s.ID)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Unmatched())
}

func TestRestoreBatch_RecomputesPositionsAndCounts(t *testing.T) {
	id := uuid.New()
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	b := RestoreBatch(id, "stdin", created, []Record{
		{Position: 7, Input: "x"},
		{Position: 9, Input: "2020-02-29 00:00:00", Result: Parse("2020-02-29 00:00:00")},
	})

	assert.Equal(t, id, b.ID)
	assert.Equal(t, 0, b.Records[0].Position)
	assert.Equal(t, 1, b.Records[1].Position)
	assert.Equal(t, 1, b.Matched())
}

func TestNewResult_NoMatchIsZero(t *testing.T) {
	res := Parse("2019-02-29 00:00:00")
	assert.Equal(t, Result{}, res)

	res = Parse("2018-04-13 09:39:21.578+0800")
	require.True(t, res.Matched)
	assert.Equal(t, 2018, res.Timestamp.Year)
	assert.True(t, res.Timestamp.HasOffset)
}
