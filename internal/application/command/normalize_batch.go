// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
	"github.com/alem-hub/timestamp-normalizer/internal/domain/shared"
	"github.com/alem-hub/timestamp-normalizer/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// NORMALIZE BATCH COMMAND
// Parses every input line, consulting the shared parse cache first, and
// stores the resulting batch.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultSource labels batches whose command carries no source.
const DefaultSource = "stdin"

// NormalizeBatchCommand contains the lines to normalize.
type NormalizeBatchCommand struct {
	// Source labels the batch, e.g. the input file path.
	Source string

	// Inputs are the raw lines in input order.
	Inputs []string
}

// Validate validates the command against the configured size limit.
func (c NormalizeBatchCommand) Validate(maxBatchSize int) error {
	if maxBatchSize > 0 && len(c.Inputs) > maxBatchSize {
		return shared.WrapError("normalization", "Validate", shared.ErrValueOutOfRange,
			fmt.Sprintf("%d inputs exceed the limit of %d", len(c.Inputs), maxBatchSize),
			shared.ErrBatchTooLarge)
	}
	return nil
}

// NormalizeBatchResult contains the stored batch and cache statistics.
type NormalizeBatchResult struct {
	Batch *normalization.Batch

	CacheHits   int
	CacheMisses int

	// CacheErrors counts lookups and stores that failed and were skipped.
	CacheErrors int

	Duration time.Duration
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// NormalizeBatchHandler handles the NormalizeBatchCommand.
type NormalizeBatchHandler struct {
	repo  normalization.Repository
	cache normalization.ResultCache
	log   *logger.Logger

	// Configuration
	maxBatchSize int
	now          func() time.Time
}

// NormalizeBatchHandlerConfig contains configuration for the handler.
type NormalizeBatchHandlerConfig struct {
	MaxBatchSize int

	// Now replaces time.Now for batch creation times.
	Now func() time.Time
}

// DefaultNormalizeBatchHandlerConfig returns default configuration.
func DefaultNormalizeBatchHandlerConfig() NormalizeBatchHandlerConfig {
	return NormalizeBatchHandlerConfig{
		MaxBatchSize: 100000,
		Now:          time.Now,
	}
}

// NewNormalizeBatchHandler creates a new NormalizeBatchHandler.
// cache may be nil, in which case every line is parsed directly.
func NewNormalizeBatchHandler(
	repo normalization.Repository,
	cache normalization.ResultCache,
	log *logger.Logger,
	config NormalizeBatchHandlerConfig,
) *NormalizeBatchHandler {
	defaults := DefaultNormalizeBatchHandlerConfig()
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = defaults.MaxBatchSize
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	if log == nil {
		log = logger.Nop()
	}

	return &NormalizeBatchHandler{
		repo:         repo,
		cache:        cache,
		log:          log.With(logger.Component("normalize_batch")),
		maxBatchSize: config.MaxBatchSize,
		now:          config.Now,
	}
}

// Handle executes the normalize batch command.
func (h *NormalizeBatchHandler) Handle(ctx context.Context, cmd NormalizeBatchCommand) (*NormalizeBatchResult, error) {
	if err := cmd.Validate(h.maxBatchSize); err != nil {
		return nil, fmt.Errorf("normalize_batch: validation failed: %w", err)
	}

	source := cmd.Source
	if source == "" {
		source = DefaultSource
	}

	start := h.now()
	batch := normalization.NewBatch(source, start)
	result := &NormalizeBatchResult{Batch: batch}
	run := &cacheRun{stats: result}

	log := h.log.With(logger.BatchID(batch.ID.String()), logger.Source(source))

	for i, input := range cmd.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("normalize_batch: %w", err)
		}

		res := h.resolve(ctx, log, i, input, run)
		batch.Append(input, res)

		if log.Enabled(logger.LevelDebug) {
			log.Debug("line normalized", logger.Position(i), logger.Input(input), logger.Matched(res.Matched))
		}
	}

	if err := h.repo.Save(ctx, batch); err != nil {
		return nil, fmt.Errorf("normalize_batch: save batch: %w", err)
	}

	result.Duration = h.now().Sub(start)

	log.Info("batch normalized",
		logger.Int("total", batch.Len()),
		logger.Int("matched", batch.Matched()),
		logger.Int("unmatched", batch.Unmatched()),
		logger.Int("cache_hits", result.CacheHits),
		logger.Int("cache_misses", result.CacheMisses),
		logger.Int("cache_errors", result.CacheErrors),
		logger.Latency(result.Duration),
	)

	return result, nil
}

// cacheRun tracks cache health across one batch.
type cacheRun struct {
	stats *NormalizeBatchResult

	// failing is set from the first cache error until the next cache
	// call that succeeds.
	failing bool
}

// resolve returns the cached result for input, parsing and caching it on a
// miss. Cache failures never fail the batch.
func (h *NormalizeBatchHandler) resolve(ctx context.Context, log *logger.Logger, pos int, input string, run *cacheRun) normalization.Result {
	if h.cache == nil {
		return normalization.Parse(input)
	}

	cached, err := h.cache.Get(ctx, input)
	switch {
	case err == nil:
		run.stats.CacheHits++
		h.cacheRecovered(log, pos, run)
		return cached
	case errors.Is(err, shared.ErrCacheMiss):
		run.stats.CacheMisses++
	default:
		h.cacheFailed(log, pos, input, "lookup", err, run)
		return normalization.Parse(input)
	}

	res := normalization.Parse(input)
	if err := h.cache.Set(ctx, input, res); err != nil {
		h.cacheFailed(log, pos, input, "store", err, run)
	} else {
		h.cacheRecovered(log, pos, run)
	}
	return res
}

// cacheFailed counts a cache error and warns only for the first one of a
// streak; CacheErrors carries the total.
func (h *NormalizeBatchHandler) cacheFailed(log *logger.Logger, pos int, input, op string, err error, run *cacheRun) {
	run.stats.CacheErrors++
	if run.failing {
		return
	}
	run.failing = true
	log.Warn("parse cache "+op+" failed, parsing directly until it recovers",
		logger.Position(pos), logger.Input(input), logger.Err(err))
}

func (h *NormalizeBatchHandler) cacheRecovered(log *logger.Logger, pos int, run *cacheRun) {
	if !run.failing {
		return
	}
	run.failing = false
	log.Info("parse cache recovered", logger.Position(pos))
}
