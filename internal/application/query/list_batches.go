package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST BATCHES QUERY
// Сводки последних пакетов, новые первыми.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListBatchesQuery содержит параметры запроса списка пакетов.
type ListBatchesQuery struct {
	// Limit - максимальное количество (по умолчанию 20, не больше 100).
	Limit int
}

// Validate проверяет корректность параметров и подставляет значения по умолчанию.
func (q *ListBatchesQuery) Validate() error {
	switch {
	case q.Limit < 0:
		return shared.ErrInvalidListLimit
	case q.Limit == 0:
		q.Limit = defaultListLimit
	case q.Limit > maxListLimit:
		q.Limit = maxListLimit
	}
	return nil
}

// ListBatchesResult содержит найденные сводки.
type ListBatchesResult struct {
	Batches []normalization.Summary
}

// ListBatchesHandler обрабатывает ListBatchesQuery.
type ListBatchesHandler struct {
	repo normalization.Repository
}

// NewListBatchesHandler создаёт новый ListBatchesHandler.
func NewListBatchesHandler(repo normalization.Repository) *ListBatchesHandler {
	return &ListBatchesHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *ListBatchesHandler) Handle(ctx context.Context, q ListBatchesQuery) (*ListBatchesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("list_batches: %w", err)
	}

	summaries, err := h.repo.ListRecent(ctx, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list_batches: %w", err)
	}

	return &ListBatchesResult{Batches: summaries}, nil
}
