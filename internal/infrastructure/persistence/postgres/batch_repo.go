package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
	"github.com/alem-hub/timestamp-normalizer/pkg/timestamp"
)

// ══════════════════════════════════════════════════════════════════════════════
// BATCH REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BatchRepository implements normalization.Repository for PostgreSQL.
type BatchRepository struct {
	conn *Connection
}

var _ normalization.Repository = (*BatchRepository)(nil)

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(conn *Connection) *BatchRepository {
	return &BatchRepository{conn: conn}
}

// timestampColumns is the COPY column list for normalized_timestamps.
var timestampColumns = []string{
	"batch_id", "position", "input", "matched",
	"year", "month", "day", "hour", "minute", "second",
	"nanosecond", "utc_offset", "canonical", "instant",
}

// Save inserts the batch row and bulk-loads its records with COPY in one
// transaction.
func (r *BatchRepository) Save(ctx context.Context, b *normalization.Batch) error {
	ctx, cancel := r.conn.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO normalization_batches (id, source, created_at, total, matched)
		VALUES ($1, $2, $3, $4, $5)
	`

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, b.ID, b.Source, b.CreatedAt, b.Len(), b.Matched()); err != nil {
			return err
		}
		if b.Len() == 0 {
			return nil
		}

		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"normalized_timestamps"},
			timestampColumns,
			pgx.CopyFromSlice(b.Len(), func(i int) ([]any, error) {
				return recordRow(b.ID, b.Records[i]), nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy records: %w", err)
		}
		if n != int64(b.Len()) {
			return fmt.Errorf("copy records: wrote %d of %d rows", n, b.Len())
		}
		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrBatchExists
		}
		return fmt.Errorf("failed to save batch: %w", err)
	}

	return nil
}

// GetByID returns a batch with its records in position order.
func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*normalization.Batch, error) {
	ctx, cancel := r.conn.queryContext(ctx)
	defer cancel()

	var batch *normalization.Batch
	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		var (
			source    string
			createdAt time.Time
		)
		err := tx.QueryRow(ctx, `
			SELECT source, created_at
			FROM normalization_batches
			WHERE id = $1
		`, id).Scan(&source, &createdAt)
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT position, input, matched,
			       year, month, day, hour, minute, second,
			       nanosecond, utc_offset
			FROM normalized_timestamps
			WHERE batch_id = $1
			ORDER BY position
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		var records []normalization.Record
		for rows.Next() {
			var d storedRecord
			if err := rows.Scan(
				&d.Position, &d.Input, &d.Matched,
				&d.Year, &d.Month, &d.Day, &d.Hour, &d.Minute, &d.Second,
				&d.Nanosecond, &d.Offset,
			); err != nil {
				return fmt.Errorf("scan record: %w", err)
			}
			records = append(records, d.record())
		}
		if err := rows.Err(); err != nil {
			return err
		}

		batch = normalization.RestoreBatch(id, source, createdAt, records)
		return nil
	})
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return batch, nil
}

// ListRecent returns batch summaries, newest first.
func (r *BatchRepository) ListRecent(ctx context.Context, limit int) ([]normalization.Summary, error) {
	if limit <= 0 {
		return nil, shared.ErrInvalidListLimit
	}

	ctx, cancel := r.conn.queryContext(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `
		SELECT id, source, created_at, total, matched
		FROM normalization_batches
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var summaries []normalization.Summary
	for rows.Next() {
		var s normalization.Summary
		if err := rows.Scan(&s.ID, &s.Source, &s.CreatedAt, &s.Total, &s.Matched); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────────────────────────────────────────

// recordRow maps a record onto timestampColumns.
func recordRow(batchID uuid.UUID, rec normalization.Record) []any {
	row := make([]any, len(timestampColumns))
	row[0] = batchID
	row[1] = int32(rec.Position)
	row[2] = []byte(rec.Input)
	row[3] = rec.Matched
	if !rec.Matched {
		return row
	}

	ts := rec.Timestamp
	row[4] = int32(ts.Year)
	row[5] = int32(ts.Month)
	row[6] = int32(ts.Day)
	row[7] = int32(ts.Hour)
	row[8] = int32(ts.Minute)
	row[9] = int32(ts.Second)
	if ts.HasFraction {
		row[10] = int32(ts.Nanosecond)
	}
	if ts.HasOffset {
		row[11] = int32(ts.Offset)
		row[13] = ts.UTC()
	}
	row[12] = ts.String()
	return row
}

// storedRecord is one scanned normalized_timestamps row.
type storedRecord struct {
	Position int32
	Input    []byte
	Matched  bool

	Year, Month, Day, Hour, Minute, Second *int32
	Nanosecond, Offset                     *int32
}

func (d storedRecord) record() normalization.Record {
	rec := normalization.Record{Position: int(d.Position), Input: string(d.Input)}
	if !d.Matched {
		return rec
	}

	ts := timestamp.Timestamp{
		Year:   deref(d.Year),
		Month:  time.Month(deref(d.Month)),
		Day:    deref(d.Day),
		Hour:   deref(d.Hour),
		Minute: deref(d.Minute),
		Second: deref(d.Second),
	}
	if d.Nanosecond != nil {
		ts.Nanosecond, ts.HasFraction = int(*d.Nanosecond), true
	}
	if d.Offset != nil {
		ts.Offset, ts.HasOffset = int(*d.Offset), true
	}

	rec.Result = normalization.Result{Matched: true, Timestamp: ts}
	return rec
}

func deref(v *int32) int {
	if v == nil {
		return 0
	}
	return int(*v)
}
