// Package normalization содержит доменную модель пакетной нормализации
// временных меток. Разбор строк делегируется pkg/timestamp.
package normalization

import (
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
	"github.com/alem-hub/timestamp-normalizer/pkg/timestamp"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULT
// ══════════════════════════════════════════════════════════════════════════════

// Result - исход разбора одной строки. Matched=false означает NoMatch,
// и тогда Timestamp равен нулевому значению.
type Result struct {
	Matched   bool                `json:"matched"`
	Timestamp timestamp.Timestamp `json:"timestamp"`
}

// NewResult упаковывает пару (Timestamp, bool), которую возвращает timestamp.Parse.
func NewResult(ts timestamp.Timestamp, ok bool) Result {
	if !ok {
		return Result{}
	}
	return Result{Matched: true, Timestamp: ts}
}

// Parse разбирает строку и возвращает Result.
func Parse(input string) Result {
	return NewResult(timestamp.Parse(input))
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record - одна входная строка пакета вместе с результатом разбора.
type Record struct {
	// Position - порядковый номер строки в пакете, начиная с 0.
	Position int

	// Input - исходная строка без изменений.
	Input string

	Result
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH (AGGREGATE ROOT)
// ══════════════════════════════════════════════════════════════════════════════

// Batch - агрегат: набор строк, нормализованных за один запуск.
type Batch struct {
	ID        uuid.UUID
	Source    string
	CreatedAt time.Time
	Records   []Record

	matched int
}

// NewBatch создаёт пустой пакет с новым идентификатором.
func NewBatch(source string, createdAt time.Time) *Batch {
	return &Batch{
		ID:        uuid.New(),
		Source:    source,
		CreatedAt: createdAt.UTC(),
	}
}

// RestoreBatch восстанавливает пакет из хранилища.
func RestoreBatch(id uuid.UUID, source string, createdAt time.Time, records []Record) *Batch {
	b := &Batch{
		ID:        id,
		Source:    source,
		CreatedAt: createdAt.UTC(),
		Records:   make([]Record, 0, len(records)),
	}
	for _, r := range records {
		b.Append(r.Input, r.Result)
	}
	return b
}

// Append добавляет строку в конец пакета и возвращает созданную запись.
func (b *Batch) Append(input string, res Result) Record {
	rec := Record{
		Position: len(b.Records),
		Input:    input,
		Result:   res,
	}
	b.Records = append(b.Records, rec)
	if res.Matched {
		b.matched++
	}
	return rec
}

// Record возвращает запись по позиции.
func (b *Batch) Record(position int) (Record, error) {
	if position < 0 || position >= len(b.Records) {
		return Record{}, shared.ErrRecordOutOfBounds
	}
	return b.Records[position], nil
}

// Len возвращает количество строк в пакете.
func (b *Batch) Len() int { return len(b.Records) }

// Matched возвращает количество распознанных строк.
func (b *Batch) Matched() int { return b.matched }

// Unmatched возвращает количество нераспознанных строк.
func (b *Batch) Unmatched() int { return len(b.Records) - b.matched }

// Summary возвращает сводку пакета без записей.
func (b *Batch) Summary() Summary {
	return Summary{
		ID:        b.ID,
		Source:    b.Source,
		CreatedAt: b.CreatedAt,
		Total:     b.Len(),
		Matched:   b.Matched(),
	}
}

// Summary - краткое описание пакета для списков.
type Summary struct {
	ID        uuid.UUID
	Source    string
	CreatedAt time.Time
	Total     int
	Matched   int
}

// Unmatched возвращает количество нераспознанных строк.
func (s Summary) Unmatched() int { return s.Total - s.Matched }
