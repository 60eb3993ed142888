package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowforge.app/forge/common/id"
	"flowforge.app/forge/common/logger"
	"flowforge.app/forge/common/otel"
	"flowforge.app/forge/core/config"
	"flowforge.app/forge/core/db"
	"flowforge.app/forge/internal/cache"
	"flowforge.app/forge/internal/generator"
	"flowforge.app/forge/internal/llm"
	"flowforge.app/forge/internal/phrasing"
	"flowforge.app/forge/internal/queue"
	"flowforge.app/forge/internal/service"
	"flowforge.app/forge/internal/store"
	"flowforge.app/forge/internal/worker"
	"github.com/redis/go-redis/v9"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "forge worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.Group,
		"consumer_name", cfg.Queue.Consumer)

	// Different node ID than the server so both can mint IDs concurrently
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	if !cfg.GeneratorLLM.Enabled() {
		slog.ErrorContext(ctx, "generator llm api key is required for the worker")
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.Stream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:      cfg.Queue.Stream,
		Group:       cfg.Queue.Group,
		Consumer:    cfg.Queue.Consumer,
		DLQStream:   cfg.Queue.DLQStream,
		BatchSize:   cfg.Queue.BatchSize,
		Block:       cfg.Queue.BlockTimeout,
		MaxAttempts: cfg.Queue.MaxAttempts,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	generatorClient, err := llm.New(llm.Config{
		APIKey:  cfg.GeneratorLLM.APIKey,
		BaseURL: cfg.GeneratorLLM.BaseURL,
		Model:   cfg.GeneratorLLM.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create generator llm client", "error", err)
		os.Exit(1)
	}

	// The worker never phrases questions, so the service it completes
	// generations through runs with the fallback-only phraser.
	phraser := phrasing.New(nil, cache.NewMemory(), phrasing.Config{})

	producer := queue.NewRedisProducer(redisClient, cfg.Queue.Stream, slog.Default())
	defer producer.Close()

	services := service.NewServices(service.ServicesConfig{
		WorkflowStore: store.NewWorkflowStore(database.Pool()),
		Phraser:       phraser,
		Producer:      producer,
	})

	w := worker.New(consumer, generator.New(generatorClient, cfg.GeneratorLLM.MaxTokens), services.Workflows())

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
███████╗ ██████╗ ██████╗  ██████╗ ███████╗    ██╗    ██╗██╗  ██╗██████╗
██╔════╝██╔═══██╗██╔══██╗██╔════╝ ██╔════╝    ██║    ██║██║ ██╔╝██╔══██╗
█████╗  ██║   ██║██████╔╝██║  ███╗█████╗      ██║ █╗ ██║█████╔╝ ██████╔╝
██╔══╝  ██║   ██║██╔══██╗██║   ██║██╔══╝      ██║███╗██║██╔═██╗ ██╔══██╗
██║     ╚██████╔╝██║  ██║╚██████╔╝███████╗    ╚███╔███╔╝██║  ██╗██║  ██║
╚═╝      ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝     ╚══╝╚══╝ ╚═╝  ╚═╝╚═╝  ╚═╝
`
