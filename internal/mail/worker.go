package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/pkg/queue"
)

// JobQueue is the queue surface the worker drains.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Worker drains the mail queue and delivers QR code emails.
type Worker struct {
	queue  JobQueue
	mailer *Mailer
	logger *zap.Logger
}

// NewWorker creates a mail worker.
func NewWorker(q JobQueue, mailer *Mailer, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: q, mailer: mailer, logger: logger}
}

// Process executes one mail job.
func (w *Worker) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeQRCodeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.QRCodeEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return w.mailer.SendQRCode(ctx, payload.RecipientEmail, payload.RecipientName, payload.QRDataURL)
}

// backoff waits out the retry delay; returns false when ctx ends first.
func (w *Worker) backoff(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(queue.RetryBackoff):
		return true
	}
}

// Run starts the worker loop: dequeue, process, retry on error. It
// returns when ctx is done, including mid-backoff.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("mail worker stopping")
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("dequeue error", zap.Error(err))
			if !w.backoff(ctx) {
				return
			}
			continue
		}
		if job == nil {
			continue
		}

		w.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := w.Process(ctx, job); err != nil {
			w.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := w.queue.Retry(ctx, job); reErr != nil {
				w.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			if !w.backoff(ctx) {
				return
			}
		}
	}
}
