// Package main is the entry point for the stockroom API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"stockroom/internal/app"
	"stockroom/internal/domain/reconcile"
	"stockroom/internal/infrastructure/idempotency"
	v1 "stockroom/internal/infrastructure/http/v1"
	"stockroom/internal/infrastructure/storage/memory"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/store"
	"stockroom/pkg/logger"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply the database schema before serving")
	inMemory := flag.Bool("memory", false, "serve from process memory instead of PostgreSQL")
	flag.Parse()

	_ = godotenv.Load() // Load .env file if it exists

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
		Service:     "stockroom-server",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting stockroom server")

	engineCfg := reconcile.DefaultConfig()
	engineCfg.Concurrency = getEnvInt("RECONCILE_CONCURRENCY", engineCfg.Concurrency)
	engineCfg.LowStockThreshold = int64(getEnvInt("LOW_STOCK_THRESHOLD", int(engineCfg.LowStockThreshold)))

	idempotencyTTL := getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour)
	idempotencyEnabled := getEnv("IDEMPOTENCY_ENABLED", "true") == "true"

	var (
		services *app.Services
		keys     idempotency.Store
	)

	if *inMemory {
		mem := memory.New()
		services = app.New(mem, mem, engineCfg)
		keys = idempotency.NewMemoryStore(idempotencyTTL)
		log.Warn("serving from memory, data is lost on exit")
	} else {
		poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
		poolCfg.MaxConns = int32(getEnvInt("DB_MAX_CONNS", int(poolCfg.MaxConns)))
		poolCfg.MinConns = int32(getEnvInt("DB_MIN_CONNS", int(poolCfg.MinConns)))
		poolCfg.ApplicationName = "stockroom-server"

		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()

		if _, err := pool.Observe(otel.Meter("stockroom/db")); err != nil {
			log.Warnw("pool metrics disabled", "error", err)
		}

		st, err := store.New(pool)
		if err != nil {
			log.Fatalw("failed to initialize storage", "error", err)
		}

		if *migrate {
			if err := st.Migrate(ctx); err != nil {
				log.Fatalw("failed to apply schema", "error", err)
			}
		}

		services = app.New(st, st.Notifier(), engineCfg)
		keys = postgres.NewIdempotencyStore(st.TxManager, idempotencyTTL)
	}

	if !idempotencyEnabled {
		keys = nil
	}

	log.Infow("services initialized",
		"reconcile_concurrency", engineCfg.Concurrency,
		"low_stock_threshold", engineCfg.LowStockThreshold,
		"idempotency", idempotencyEnabled,
	)

	router := v1.NewRouter(v1.RouterConfig{
		Services:    services,
		Idempotency: keys,
		Logger:      log,
	})

	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
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
