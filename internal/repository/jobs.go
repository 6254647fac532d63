package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is one row of the background job queue.
type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      json.RawMessage
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ErrorMessage sql.NullString
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	CreatedAt    time.Time
}

// EnqueueJobParams contains the fields for job insertion.
type EnqueueJobParams struct {
	JobType     string
	Payload     json.RawMessage
	Priority    int32
	MaxAttempts int32
	ScheduledAt time.Time
}

const enqueueJob = `
INSERT INTO jobs (id, job_type, payload, status, priority, attempts, max_attempts, scheduled_at)
VALUES ($1, $2, $3, 'pending', $4, 0, $5, $6)
RETURNING id, job_type, payload, status, priority, attempts, max_attempts, error_message,
	scheduled_at, started_at, completed_at, created_at
`

// EnqueueJob inserts a pending job.
func (q *Queries) EnqueueJob(ctx context.Context, params EnqueueJobParams) (Job, error) {
	row := q.db.QueryRowContext(ctx, enqueueJob,
		uuid.New(), params.JobType, params.Payload, params.Priority, params.MaxAttempts, params.ScheduledAt)
	return scanJob(row)
}

// DequeueJob claims the next runnable job using SKIP LOCKED so multiple
// workers never claim the same row. Must be called inside a transaction.
const dequeueJob = `
SELECT id, job_type, payload, status, priority, attempts, max_attempts, error_message,
	scheduled_at, started_at, completed_at, created_at
FROM jobs
WHERE status = 'pending' AND scheduled_at <= now()
ORDER BY priority DESC, scheduled_at
LIMIT 1
FOR UPDATE SKIP LOCKED
`

// DequeueJob returns the next pending job, or sql.ErrNoRows.
func (q *Queries) DequeueJob(ctx context.Context) (Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, dequeueJob))
}

const updateJobStarted = `
UPDATE jobs SET status = 'running', attempts = attempts + 1, started_at = now() WHERE id = $1
`

// UpdateJobStarted marks a job as running and bumps its attempt count.
func (q *Queries) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, updateJobStarted, id)
	return err
}

const updateJobCompleted = `
UPDATE jobs SET status = 'completed', completed_at = now() WHERE id = $1
`

// UpdateJobCompleted marks a job as done.
func (q *Queries) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, updateJobCompleted, id)
	return err
}

// UpdateJobFailedParams carries the failure details.
type UpdateJobFailedParams struct {
	ID           uuid.UUID
	ErrorMessage sql.NullString
	Permanent    bool
	RetryDelay   time.Duration
}

// Retryable failures go back to pending with a backoff; permanent
// failures and exhausted attempts land in 'failed'.
const updateJobFailed = `
UPDATE jobs SET
	status = CASE WHEN $3 OR attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
	error_message = $2,
	scheduled_at = CASE WHEN $3 OR attempts >= max_attempts THEN scheduled_at ELSE now() + ($4 * interval '1 second') END,
	completed_at = CASE WHEN $3 OR attempts >= max_attempts THEN now() ELSE NULL END
WHERE id = $1
`

// UpdateJobFailed records a job failure, rescheduling when retries remain.
func (q *Queries) UpdateJobFailed(ctx context.Context, params UpdateJobFailedParams) error {
	_, err := q.db.ExecContext(ctx, updateJobFailed, params.ID, params.ErrorMessage, params.Permanent, params.RetryDelay.Seconds())
	return err
}

const recoverStaleJobs = `
UPDATE jobs SET status = 'pending', started_at = NULL
WHERE status = 'running' AND started_at < now() - ($1 * interval '1 second')
`

// RecoverStaleJobs resets jobs stuck in 'running' after a worker crash.
func (q *Queries) RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error) {
	res, err := q.db.ExecContext(ctx, recoverStaleJobs, thresholdSeconds)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.JobType, &j.Payload, &j.Status, &j.Priority, &j.Attempts, &j.MaxAttempts,
		&j.ErrorMessage, &j.ScheduledAt, &j.StartedAt, &j.CompletedAt, &j.CreatedAt)
	return j, err
}
