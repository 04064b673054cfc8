// Package queue carries ingestion jobs from the upload handler to the
// pipeline workers over a durable Redis-backed task queue.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pdfchat/backend/internal/models"
)

// TypeDocumentIngest is the task type for one document ingestion.
const TypeDocumentIngest = "document:ingest"

// Enqueuer is the narrow interface the upload handler depends on.
type Enqueuer interface {
	EnqueueIngestion(ctx context.Context, job models.IngestionJob) error
}

// Client enqueues ingestion tasks.
type Client struct {
	inner       *asynq.Client
	taskTimeout time.Duration
}

// NewClient connects to Redis at addr. taskTimeout bounds one whole
// document ingestion on the worker side.
func NewClient(addr string, taskTimeout time.Duration) *Client {
	return &Client{
		inner:       asynq.NewClient(asynq.RedisClientOpt{Addr: addr}),
		taskTimeout: taskTimeout,
	}
}

// Close releases the Redis connection.
func (c *Client) Close() error { return c.inner.Close() }

// EnqueueIngestion puts one job on the queue. MaxRetry is zero: retries of
// transient faults happen inside the pipeline, and a document that fails
// there is terminal until a fresh upload creates a new job. Replaying the
// task would risk silent retry loops on permanently bad input.
func (c *Client) EnqueueIngestion(ctx context.Context, job models.IngestionJob) error {
	payload, err := job.Encode()
	if err != nil {
		return fmt.Errorf("encoding ingestion job: %w", err)
	}
	task := asynq.NewTask(TypeDocumentIngest, payload)
	_, err = c.inner.EnqueueContext(ctx, task,
		asynq.MaxRetry(0),
		asynq.Timeout(c.taskTimeout),
	)
	if err != nil {
		return fmt.Errorf("enqueueing ingestion job: %w", err)
	}
	return nil
}

// Handler processes one decoded ingestion job.
type Handler func(ctx context.Context, job models.IngestionJob) error

// Server consumes ingestion tasks and dispatches them to a Handler.
type Server struct {
	inner *asynq.Server
	log   *slog.Logger
}

// NewServer creates the worker-side consumer. Concurrency is the number of
// documents processed in parallel; workers share no state beyond the
// external index and tracker.
func NewServer(addr string, concurrency int, log *slog.Logger) *Server {
	return &Server{
		inner: asynq.NewServer(
			asynq.RedisClientOpt{Addr: addr},
			asynq.Config{Concurrency: concurrency},
		),
		log: log,
	}
}

// Run blocks, consuming tasks until shutdown.
func (s *Server) Run(h Handler) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDocumentIngest, func(ctx context.Context, t *asynq.Task) error {
		job, err := models.DecodeIngestionJob(t.Payload())
		if err != nil {
			// Undecodable payloads can never succeed; don't requeue.
			s.log.Error("dropping malformed ingestion task", "error", err)
			return nil
		}
		return h(ctx, job)
	})
	return s.inner.Run(mux)
}

// Shutdown stops the consumer, letting in-flight jobs run to completion.
// Ingestion is not cancellable mid-flight; partial abort carries the same
// consistency risk as partial success.
func (s *Server) Shutdown() { s.inner.Shutdown() }
