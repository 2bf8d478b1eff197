// Package main is the entry point for the stockroom background worker.
// It relays outbox messages and expires idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/pkg/logger"
)

func main() {
	_ = godotenv.Load() // Load .env file if it exists

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
		Service:     "stockroom-worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting stockroom worker")

	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	poolCfg.MaxConns = int32(getEnvInt("DB_MAX_CONNS", 5))
	poolCfg.MinConns = 1
	poolCfg.ApplicationName = "stockroom-worker"

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	worker := NewWorker(pool, WorkerConfig{
		PollInterval:   getEnvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second),
		BatchSize:      getEnvInt("OUTBOX_BATCH_SIZE", 100),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// WorkerConfig configures the polling loops.
type WorkerConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	IdempotencyTTL time.Duration
}

// Worker publishes outbox messages and runs periodic cleanup.
type Worker struct {
	cfg   WorkerConfig
	pool  *postgres.Pool
	relay *postgres.OutboxRelay
	keys  *postgres.IdempotencyStore
	log   *logger.Logger
}

func NewWorker(pool *postgres.Pool, cfg WorkerConfig, log *logger.Logger) *Worker {
	txManager := postgres.NewTxManager(pool)
	w := &Worker{
		cfg:  cfg,
		pool: pool,
		keys: postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		log:  log.WithComponent("worker"),
	}
	w.relay = postgres.NewOutboxRelay(txManager, cfg.BatchSize, postgres.OutboxHandlerFunc(w.handle))
	return w
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(appctx.WithTrace(ctx, appctx.NewTraceContext()))
		case <-cleanupTicker.C:
			cleanupCtx := appctx.WithTrace(ctx, appctx.NewTraceContext())
			w.moveToDLQ(cleanupCtx)
			w.cleanupIdempotency(cleanupCtx)
			w.pool.LogStats(cleanupCtx)
		}
	}
}

// handle delivers one message. Delivery is a structured log line; a broker
// publisher plugs in here.
func (w *Worker) handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	switch msg.EventType {
	case postgres.EventLowStock:
		event, err := postgres.DecodeLowStock(msg)
		if err != nil {
			return err
		}
		w.log.WithContext(ctx).Warnw("low stock",
			"inventory_id", event.InventoryID,
			"name", event.Name,
			"remaining", event.RemainingQuantity,
		)
	default:
		w.log.WithContext(ctx).Infow("unhandled outbox event",
			"id", msg.ID,
			"event_type", msg.EventType,
			"aggregate_type", msg.AggregateType,
		)
	}
	return nil
}

func (w *Worker) processOutbox(ctx context.Context) {
	count, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if count > 0 {
		w.log.Debugw("processed outbox batch", "count", count)
	}
}

func (w *Worker) moveToDLQ(ctx context.Context) {
	moved, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("failed to move outbox messages to DLQ", "error", err)
		return
	}
	if moved > 0 {
		w.log.Warnw("moved outbox messages to DLQ", "count", moved)
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	removed, err := w.keys.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
		return
	}
	if removed > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", removed)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
