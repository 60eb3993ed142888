// Package worker drains the generation queue: each task turns a stored
// prompt into a decoded draft and attaches it to its workflow record.
package worker

import (
	"context"
	"log/slog"
	"time"

	"flowforge.app/forge/common/logger"
	"flowforge.app/forge/internal/generator"
	"flowforge.app/forge/internal/llm"
	"flowforge.app/forge/internal/queue"
	"flowforge.app/forge/internal/service"
)

type Worker struct {
	consumer  *queue.RedisConsumer
	generator generator.Generator
	workflows service.WorkflowService

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *queue.RedisConsumer, gen generator.Generator, workflows service.WorkflowService) *Worker {
	return &Worker{
		consumer:  consumer,
		generator: gen,
		workflows: workflows,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		w.processMessage(ctx, msg)
	}
	return nil
}

func (w *Worker) processMessage(ctx context.Context, msg queue.Message) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkflowID: logger.Ptr(msg.Task.WorkflowID),
		TaskID:     logger.Ptr(msg.ID),
		Component:  "forge.worker",
	})

	slog.InfoContext(ctx, "processing generation task", "attempt", msg.Task.Attempt)

	draft, err := w.generator.Generate(ctx, msg.Task.Prompt)
	if err != nil {
		if llm.IsRetryable(ctx, err) {
			if retryErr := w.consumer.Retry(ctx, msg); retryErr != nil {
				slog.ErrorContext(ctx, "failed to retry task", "error", retryErr)
			}
			return
		}
		w.abandon(ctx, msg)
		return
	}

	if _, err := w.workflows.CompleteGeneration(ctx, msg.Task.WorkflowID, draft); err != nil {
		slog.ErrorContext(ctx, "failed to attach generated draft", "error", err)
		if retryErr := w.consumer.Retry(ctx, msg); retryErr != nil {
			slog.ErrorContext(ctx, "failed to retry task", "error", retryErr)
		}
		return
	}

	if err := w.consumer.Ack(ctx, msg.ID); err != nil {
		slog.ErrorContext(ctx, "failed to ack task", "error", err)
	}
}

// abandon dead-letters the task and demotes the record to an empty editable
// draft so the user is not stuck behind a generation that will never finish.
func (w *Worker) abandon(ctx context.Context, msg queue.Message) {
	if err := w.consumer.DeadLetter(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to dead-letter task", "error", err)
	}
	if err := w.workflows.FailGeneration(ctx, msg.Task.WorkflowID); err != nil {
		slog.ErrorContext(ctx, "failed to mark generation failed", "error", err)
	}
}
