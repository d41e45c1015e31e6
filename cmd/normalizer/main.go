// Package main - точка входа пакетного нормализатора временных меток.
//
// Нормализатор читает строки (stdin или NORMALIZER_INPUT), разбирает каждую
// через pkg/timestamp, сохраняет пакет и печатает записи в stdout как NDJSON
// или CSV. Логи идут в stderr.
//
// Режимы (см. config.Mode):
//   - normalize: разобрать вход и сохранить пакет (по умолчанию)
//   - replay: повторно вывести сохранённый пакет (NORMALIZER_REPLAY_BATCH)
//   - list: вывести сводки последних пакетов (NORMALIZER_LIST_BATCHES)
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/alem-hub/timestamp-normalizer/config"
	"github.com/alem-hub/timestamp-normalizer/internal/application/command"
	"github.com/alem-hub/timestamp-normalizer/internal/application/query"
	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
	"github.com/alem-hub/timestamp-normalizer/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/timestamp-normalizer/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/timestamp-normalizer/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/timestamp-normalizer/internal/interface/output"
	"github.com/alem-hub/timestamp-normalizer/pkg/circuitbreaker"
	"github.com/alem-hub/timestamp-normalizer/pkg/logger"
	"github.com/alem-hub/timestamp-normalizer/pkg/retry"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    stderr,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.AddCaller,
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)
	log.Info("starting normalizer", logger.String("mode", string(cfg.Mode())))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ ПАКЕТОВ (PostgreSQL или память)
	// ─────────────────────────────────────────────────────────────────────────
	repo, closeRepo, err := setupRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ВЫПОЛНЕНИЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	switch cfg.Mode() {
	case config.ModeReplay:
		return replay(ctx, cfg, repo, stdout)
	case config.ModeList:
		return list(ctx, cfg, repo, stdout)
	}

	cache, closeCache := setupCache(ctx, cfg, log)
	defer closeCache()

	return normalize(ctx, cfg, repo, cache, log, stdin, stdout)
}

// ══════════════════════════════════════════════════════════════════════════════
// SETUP
// ══════════════════════════════════════════════════════════════════════════════

func setupRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (normalization.Repository, func(), error) {
	if cfg.Database.URL == "" {
		log.Info("DATABASE_URL not set, batches are kept in memory")
		return memory.NewBatchRepository(), func() {}, nil
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = cfg.Database.MaxConns
	pgCfg.MinConns = cfg.Database.MinConns
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	pgCfg.QueryTimeout = cfg.Database.QueryTimeout

	retrier := retry.ConnectRetrier(func(attempt int, err error, delay time.Duration) {
		log.Warn("database not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Err(err),
			logger.Duration("delay", delay),
		)
	})

	var conn *postgres.Connection
	err := retrier.Do(ctx, func(ctx context.Context) error {
		c, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Migrate {
		applied, err := postgres.NewMigrator(conn).Migrate(ctx)
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations applied", logger.Int("count", applied))
	}

	log.Info("connected to database")
	return postgres.NewBatchRepository(conn), conn.Close, nil
}

// setupCache connects to Redis when enabled. The cache is optional: if it
// cannot be reached the normalizer parses every line itself.
func setupCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (normalization.ResultCache, func()) {
	if !cfg.Redis.Enabled {
		return nil, func() {}
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.URL = cfg.Redis.URL
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

	client, err := redis.NewCache(ctx, redisCfg)
	if err != nil {
		log.Warn("parse cache unavailable, continuing without it", logger.Err(err))
		return nil, func() {}
	}

	breaker := redis.NewParseCacheBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	cache := redis.NewParseCache(client, breaker, redis.ParseCacheConfig{
		KeyPrefix: cfg.Redis.KeyPrefix,
		TTL:       cfg.Redis.CacheTTL,
	})

	log.Info("parse cache enabled", logger.String("prefix", cfg.Redis.KeyPrefix))
	return cache, func() { _ = client.Close() }
}

// ══════════════════════════════════════════════════════════════════════════════
// JOBS
// ══════════════════════════════════════════════════════════════════════════════

func normalize(
	ctx context.Context,
	cfg *config.Config,
	repo normalization.Repository,
	cache normalization.ResultCache,
	log *logger.Logger,
	stdin io.Reader,
	stdout io.Writer,
) error {
	in := stdin
	if !cfg.ReadsStdin() {
		f, err := os.Open(cfg.Normalizer.InputPath)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	lines, err := readLines(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	handler := command.NewNormalizeBatchHandler(repo, cache, log, command.NormalizeBatchHandlerConfig{
		MaxBatchSize: cfg.Normalizer.MaxBatchSize,
	})

	result, err := handler.Handle(ctx, command.NormalizeBatchCommand{
		Source: cfg.BatchSource(),
		Inputs: lines,
	})
	if err != nil {
		return err
	}

	w, err := output.New(cfg.Normalizer.OutputFormat, stdout, cfg.Normalizer.NaiveLocation)
	if err != nil {
		return err
	}
	return output.WriteBatch(w, result.Batch)
}

func replay(ctx context.Context, cfg *config.Config, repo normalization.Repository, stdout io.Writer) error {
	result, err := query.NewGetBatchHandler(repo).Handle(ctx, query.GetBatchQuery{
		ID:            cfg.Normalizer.ReplayBatch,
		OnlyUnmatched: cfg.Normalizer.OnlyUnmatched,
	})
	if err != nil {
		return err
	}

	w, err := output.New(cfg.Normalizer.OutputFormat, stdout, cfg.Normalizer.NaiveLocation)
	if err != nil {
		return err
	}
	for _, rec := range result.Records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

func list(ctx context.Context, cfg *config.Config, repo normalization.Repository, stdout io.Writer) error {
	result, err := query.NewListBatchesHandler(repo).Handle(ctx, query.ListBatchesQuery{
		Limit: cfg.Normalizer.ListBatches,
	})
	if err != nil {
		return err
	}
	return output.WriteSummaries(cfg.Normalizer.OutputFormat, stdout, result.Batches)
}

// readLines returns the non-blank lines of r without their line terminators.
// Other whitespace is kept: it is part of the input being judged.
func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
