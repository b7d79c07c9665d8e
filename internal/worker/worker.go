package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/notify"
	"github.com/eduverse/site-backend/pkg/queue"
)

// idleBackoff is the pause after a Redis error before polling again.
const idleBackoff = 5 * time.Second

// JobQueue is the part of queue.Queue the processor needs.
type JobQueue interface {
	Dequeue(ctx context.Context, key string) (*queue.Job, error)
	Bury(ctx context.Context, job *queue.Job, cause error) error
}

// Delivery sends a rendered email job.
type Delivery interface {
	Deliver(ctx context.Context, job notify.Job) error
}

// EmailProcessor consumes email jobs from Redis and delivers them. Failed jobs go to the dead-letter list.
type EmailProcessor struct {
	queue    JobQueue
	delivery Delivery
	logger   *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(q JobQueue, delivery Delivery, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{queue: q, delivery: delivery, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload notify.Job
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.ID == "" {
		payload.ID = job.ID
	}
	return p.delivery.Deliver(ctx, payload)
}

// Run starts the worker loop: dequeue, process, bury on error. Returns when ctx is done.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, queue.QueueEmails)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, idleBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if buryErr := p.queue.Bury(context.WithoutCancel(ctx), job, err); buryErr != nil {
				p.logger.Error("bury failed", zap.String("job_id", job.ID), zap.Error(buryErr))
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// QueueOutbox returns a notify.Outbox that pushes jobs onto the Redis email list.
func QueueOutbox(q *queue.Queue) notify.Outbox {
	return notify.OutboxFunc(func(ctx context.Context, job notify.Job) error {
		_, err := q.Enqueue(ctx, queue.QueueEmails, queue.JobTypeEmail, job.ID, job)
		return err
	})
}
