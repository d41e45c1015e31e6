package normalization

import (
	"context"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository хранит нормализованные пакеты.
type Repository interface {
	// Save сохраняет пакет вместе со всеми записями.
	// Возвращает ErrBatchExists, если пакет с таким ID уже сохранён.
	Save(ctx context.Context, batch *Batch) error

	// GetByID возвращает пакет со всеми записями в исходном порядке.
	// Возвращает ErrBatchNotFound, если пакет не найден.
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// ListRecent возвращает сводки последних пакетов, новые первыми.
	ListRecent(ctx context.Context, limit int) ([]Summary, error)
}

// ResultCache - общий кэш результатов разбора, ключом служит исходная строка.
// Кэшируются и неудачные разборы.
type ResultCache interface {
	// Get возвращает ErrCacheMiss, если строки нет в кэше.
	Get(ctx context.Context, input string) (Result, error)

	// Set сохраняет результат разбора.
	Set(ctx context.Context, input string, res Result) error
}
