package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, task GenerationTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task GenerationTask) error {
	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"workflow_id": task.WorkflowID,
		"prompt":      task.Prompt,
		"attempt":     attempt,
	}
	if task.TraceID != "" {
		fields["trace_id"] = task.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue generation task: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued generation task", "workflow_id", task.WorkflowID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
