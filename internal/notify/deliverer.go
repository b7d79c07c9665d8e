package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/models"
)

// LogStore persists delivery attempts.
type LogStore interface {
	Insert(ctx context.Context, entry *models.EmailLog) error
}

// Deliverer sends every email in a job once and records each attempt. Nothing is retried.
type Deliverer struct {
	sender Sender
	logs   LogStore
	logger *zap.Logger
}

// NewDeliverer creates a deliverer. logs may be nil.
func NewDeliverer(sender Sender, logs LogStore, logger *zap.Logger) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{sender: sender, logs: logs, logger: logger}
}

// Deliver sends the job's emails independently: one failing does not stop the other.
func (d *Deliverer) Deliver(ctx context.Context, job Job) error {
	failed := 0
	for _, e := range job.Emails {
		entry := &models.EmailLog{
			ID:        models.NewID(),
			JobID:     job.ID,
			Flow:      job.Flow,
			Audience:  e.Audience,
			Recipient: e.Message.To,
			Subject:   e.Message.Subject,
			Status:    models.EmailLogStatusSent,
		}
		if err := d.sender.Send(ctx, e.Message); err != nil {
			failed++
			entry.Status = models.EmailLogStatusFailed
			entry.Error = err.Error()
			d.logger.Warn("email delivery failed",
				zap.String("job_id", job.ID),
				zap.String("flow", job.Flow),
				zap.String("audience", e.Audience),
				zap.Error(err),
			)
		} else {
			d.logger.Info("email sent",
				zap.String("job_id", job.ID),
				zap.String("flow", job.Flow),
				zap.String("audience", e.Audience),
			)
		}
		entry.CreatedAt = time.Now().UTC()
		d.record(ctx, entry)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d emails failed", failed, len(job.Emails))
	}
	return nil
}

// Outbox returns an outbox that delivers in place. Combined with the dispatcher's detached task this is the
// in-process delivery path.
func (d *Deliverer) Outbox() Outbox {
	return OutboxFunc(d.Deliver)
}

func (d *Deliverer) record(ctx context.Context, entry *models.EmailLog) {
	if d.logs == nil {
		return
	}
	if err := d.logs.Insert(ctx, entry); err != nil {
		d.logger.Debug("email log not recorded", zap.String("job_id", entry.JobID), zap.Error(err))
	}
}
