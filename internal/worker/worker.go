// Package worker runs the database-backed background job queue.
//
// Jobs are claimed with FOR UPDATE SKIP LOCKED so multiple workers (and
// multiple instances) never double-process a row. Failed jobs retry
// with exponential backoff unless the handler reports a permanent
// failure.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tenagalabs/jejak/internal/metrics"
	"github.com/tenagalabs/jejak/internal/repository"
)

// Worker manages the polling goroutines.
type Worker struct {
	db       *sql.DB
	queries  *repository.Queries
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a Worker. Start it with Start and stop it with Stop.
func New(db *sql.DB, queries *repository.Queries, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		db:       db,
		queries:  queries,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a job handler. Call before Start.
func (w *Worker) Register(handler JobHandler) {
	jobType := handler.Type()
	if _, exists := w.handlers[jobType]; exists {
		w.logger.Warn("overwriting existing handler", "job_type", jobType)
	}
	w.handlers[jobType] = handler
}

// Start recovers stale jobs and launches the polling goroutines.
func (w *Worker) Start(ctx context.Context) {
	if err := w.recoverStaleJobs(ctx); err != nil {
		w.logger.Error("failed to recover stale jobs", "error", err)
	}

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}

	w.logger.Info("worker started", "concurrency", w.config.Concurrency)
}

// Stop signals all workers and waits up to ShutdownTimeout.
func (w *Worker) Stop() {
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("worker stopped")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("worker shutdown timeout exceeded, some jobs may still be running")
	}
}

func (w *Worker) recoverStaleJobs(ctx context.Context) error {
	count, err := w.queries.RecoverStaleJobs(ctx, w.config.StaleJobThreshold.Seconds())
	if err != nil {
		return fmt.Errorf("recover stale jobs: %w", err)
	}
	if count > 0 {
		w.logger.Warn("recovered stale jobs", "count", count, "threshold", w.config.StaleJobThreshold)
	}
	return nil
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger := w.logger.With("worker_id", workerID)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processNextJob(ctx, logger); err != nil {
				if repository.IsNoRows(err) {
					continue
				}
				logger.Error("failed to process job", "error", err)
			}
		}
	}
}

// processNextJob claims one job inside a transaction, then executes it
// outside the transaction. Returns sql.ErrNoRows when the queue is
// empty.
func (w *Worker) processNextJob(ctx context.Context, logger *slog.Logger) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := w.queries.WithTx(tx)
	job, err := qtx.DequeueJob(ctx)
	if err != nil {
		return err
	}
	if err := qtx.UpdateJobStarted(ctx, job.ID); err != nil {
		return fmt.Errorf("mark job started: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dequeue: %w", err)
	}

	logger = logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts+1)
	logger.Info("processing job")
	started := time.Now()

	if err := w.executeJob(ctx, job); err != nil {
		logger.Error("job failed", "error", err)
		metrics.JobsProcessed.WithLabelValues(job.JobType, "failed").Inc()
		w.markJobFailed(ctx, job, err)
		return fmt.Errorf("execute job: %w", err)
	}

	logger.Info("job completed", "duration", time.Since(started))
	metrics.JobsProcessed.WithLabelValues(job.JobType, "completed").Inc()
	metrics.JobDuration.WithLabelValues(job.JobType).Observe(time.Since(started).Seconds())

	if err := w.queries.UpdateJobCompleted(ctx, job.ID); err != nil {
		logger.Error("failed to mark job as completed", "error", err)
		return err
	}
	return nil
}

func (w *Worker) executeJob(ctx context.Context, job repository.Job) error {
	handler, ok := w.handlers[job.JobType]
	if !ok {
		return NewPermanentError(fmt.Errorf("no handler registered for job type: %s", job.JobType))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	return handler.Handle(jobCtx, job.Payload)
}

// markJobFailed records the failure. Permanent errors and exhausted
// attempts land in 'failed'; otherwise the job is rescheduled with
// exponential backoff.
func (w *Worker) markJobFailed(ctx context.Context, job repository.Job, jobErr error) {
	// attempts was already bumped by UpdateJobStarted.
	delay := w.config.RetryBaseDelay * time.Duration(1<<job.Attempts)

	params := repository.UpdateJobFailedParams{
		ID:           job.ID,
		ErrorMessage: sql.NullString{String: jobErr.Error(), Valid: true},
		Permanent:    IsPermanent(jobErr),
		RetryDelay:   delay,
	}
	if err := w.queries.UpdateJobFailed(ctx, params); err != nil {
		w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", err)
	}
}
