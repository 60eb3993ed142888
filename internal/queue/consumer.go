package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"flowforge.app/forge/common/logger"
)

type ConsumerConfig struct {
	Stream      string        // Redis stream name
	Group       string        // Redis consumer group name
	Consumer    string        // Redis consumer name
	DLQStream   string        // Dead letter queue stream for failed tasks
	BatchSize   int64         // Number of messages to process per batch
	Block       time.Duration // How long to block/poll for new messages
	MaxAttempts int           // Maximum retry attempts before moving to DLQ
}

// Message is one delivered generation task plus its stream bookkeeping.
type Message struct {
	ID   string
	Task GenerationTask
	Raw  redis.XMessage
}

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Starting from "0" instead of "$" means a recreated group still sees
	// messages already in the stream, so nothing is lost across restarts.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "forge.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			msg, err := parseMessage(raw)
			if err != nil {
				slog.WarnContext(ctx, "dropping unparseable message", "message_id", raw.ID, "error", err)
				if ackErr := c.Ack(ctx, raw.ID); ackErr != nil {
					slog.ErrorContext(ctx, "failed to ack unparseable message", "message_id", raw.ID, "error", ackErr)
				}
				continue
			}
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, messageID).Err(); err != nil {
		return fmt.Errorf("acking message %s: %w", messageID, err)
	}
	return nil
}

// Retry re-enqueues the task with an incremented attempt counter and acks the
// original delivery. Once attempts are exhausted the task goes to the DLQ.
func (c *RedisConsumer) Retry(ctx context.Context, msg Message) error {
	if msg.Task.Attempt >= c.cfg.MaxAttempts {
		return c.DeadLetter(ctx, msg)
	}

	fields := map[string]any{
		"workflow_id": msg.Task.WorkflowID,
		"prompt":      msg.Task.Prompt,
		"attempt":     msg.Task.Attempt + 1,
	}
	if msg.Task.TraceID != "" {
		fields["trace_id"] = msg.Task.TraceID
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.Stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("requeueing message %s: %w", msg.ID, err)
	}

	slog.InfoContext(ctx, "task requeued", "message_id", msg.ID, "workflow_id", msg.Task.WorkflowID, "attempt", msg.Task.Attempt+1)
	return c.Ack(ctx, msg.ID)
}

// DeadLetter moves the task to the DLQ stream and acks the delivery.
func (c *RedisConsumer) DeadLetter(ctx context.Context, msg Message) error {
	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.DLQStream,
		Values: msg.Raw.Values,
	}).Err(); err != nil {
		return fmt.Errorf("dead-lettering message %s: %w", msg.ID, err)
	}

	slog.WarnContext(ctx, "task dead-lettered", "message_id", msg.ID, "workflow_id", msg.Task.WorkflowID, "attempts", msg.Task.Attempt)
	return c.Ack(ctx, msg.ID)
}

func parseMessage(raw redis.XMessage) (Message, error) {
	workflowID, err := fieldInt64(raw, "workflow_id")
	if err != nil {
		return Message{}, err
	}

	task := GenerationTask{
		WorkflowID: workflowID,
		Prompt:     fieldString(raw, "prompt"),
		TraceID:    fieldString(raw, "trace_id"),
		Attempt:    1,
	}
	if attempt, err := fieldInt64(raw, "attempt"); err == nil && attempt > 0 {
		task.Attempt = int(attempt)
	}

	return Message{ID: raw.ID, Task: task, Raw: raw}, nil
}

func fieldString(raw redis.XMessage, key string) string {
	if v, ok := raw.Values[key].(string); ok {
		return v
	}
	return ""
}

func fieldInt64(raw redis.XMessage, key string) (int64, error) {
	v, ok := raw.Values[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("field %q is not a string", key)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}
