// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET BATCH QUERY
// Возвращает сохранённый пакет со всеми записями в исходном порядке.
// ══════════════════════════════════════════════════════════════════════════════

// GetBatchQuery содержит параметры запроса пакета.
type GetBatchQuery struct {
	// ID - UUID пакета в текстовом виде.
	ID string

	// OnlyUnmatched - вернуть только нераспознанные строки.
	OnlyUnmatched bool
}

// Validate проверяет корректность параметров и возвращает разобранный ID.
func (q GetBatchQuery) Validate() (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(q.ID))
	if err != nil {
		return uuid.Nil, shared.WrapError("normalization", "Validate", shared.ErrInvalidBatchID,
			fmt.Sprintf("batch ID %q is not a UUID", q.ID), err)
	}
	return id, nil
}

// GetBatchResult содержит сводку пакета и выбранные записи.
type GetBatchResult struct {
	Summary normalization.Summary
	Records []normalization.Record
}

// GetBatchHandler обрабатывает GetBatchQuery.
type GetBatchHandler struct {
	repo normalization.Repository
}

// NewGetBatchHandler создаёт новый GetBatchHandler.
func NewGetBatchHandler(repo normalization.Repository) *GetBatchHandler {
	return &GetBatchHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *GetBatchHandler) Handle(ctx context.Context, q GetBatchQuery) (*GetBatchResult, error) {
	id, err := q.Validate()
	if err != nil {
		return nil, fmt.Errorf("get_batch: %w", err)
	}

	batch, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_batch: %w", err)
	}

	records := batch.Records
	if q.OnlyUnmatched {
		records = make([]normalization.Record, 0, batch.Unmatched())
		for _, r := range batch.Records {
			if !r.Matched {
				records = append(records, r)
			}
		}
	}

	return &GetBatchResult{
		Summary: batch.Summary(),
		Records: records,
	}, nil
}
