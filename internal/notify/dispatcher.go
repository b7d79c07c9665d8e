// Package notify composes the transactional emails for each submission flow and hands them off for
// delivery without blocking the request that triggered them.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/mailer"
	"github.com/eduverse/site-backend/internal/models"
	"github.com/eduverse/site-backend/internal/tasks"
)

// Sender delivers a single message.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, msg mailer.Message) error
}

// Job is one flow's worth of rendered emails.
type Job struct {
	ID        string    `json:"id"`
	Flow      string    `json:"flow"`
	Emails    []Email   `json:"emails"`
	CreatedAt time.Time `json:"createdAt"`
}

// Outbox accepts jobs for eventual delivery.
type Outbox interface {
	Enqueue(ctx context.Context, job Job) error
}

// OutboxFunc adapts a function to Outbox.
type OutboxFunc func(ctx context.Context, job Job) error

// Enqueue calls f.
func (f OutboxFunc) Enqueue(ctx context.Context, job Job) error { return f(ctx, job) }

// Result tells the caller what happened synchronously. Delivery itself is never reported back.
type Result struct {
	Skipped bool
	JobID   string
}

// Dispatcher renders emails and hands them to the outbox on a detached task.
type Dispatcher struct {
	sender    Sender
	outbox    Outbox
	runner    *tasks.Runner
	adminAddr string
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. adminAddr receives the operator alerts.
func NewDispatcher(sender Sender, outbox Outbox, runner *tasks.Runner, adminAddr string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sender: sender, outbox: outbox, runner: runner, adminAddr: adminAddr, logger: logger}
}

// Contact dispatches the contact-form emails.
func (d *Dispatcher) Contact(c *models.Contact) Result {
	return d.dispatch(models.EmailFlowContact, func() ([]Email, error) {
		return ContactEmails(c, d.adminAddr)
	})
}

// Booking dispatches the recording booking emails.
func (d *Dispatcher) Booking(r *models.RecordingRequest) Result {
	return d.dispatch(models.EmailFlowBooking, func() ([]Email, error) {
		return BookingEmails(r, d.adminAddr)
	})
}

// Registration dispatches the event registration emails.
func (d *Dispatcher) Registration(r *models.Registration) Result {
	return d.dispatch(models.EmailFlowRegistration, func() ([]Email, error) {
		return RegistrationEmails(r, d.adminAddr)
	})
}

func (d *Dispatcher) dispatch(flow string, build func() ([]Email, error)) Result {
	if d == nil || d.sender == nil || !d.sender.Configured() {
		return Result{Skipped: true}
	}
	emails, err := build()
	if err != nil {
		d.logger.Error("render emails failed", zap.String("flow", flow), zap.Error(err))
		return Result{}
	}
	job := Job{ID: uuid.New().String(), Flow: flow, Emails: emails, CreatedAt: time.Now().UTC()}
	d.runner.Go("notify:"+flow, func(ctx context.Context) error {
		if err := d.outbox.Enqueue(ctx, job); err != nil {
			return fmt.Errorf("enqueue %s job %s: %w", flow, job.ID, err)
		}
		d.logger.Debug("email job handed off", zap.String("job_id", job.ID), zap.String("flow", flow))
		return nil
	})
	return Result{JobID: job.ID}
}
