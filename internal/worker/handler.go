package worker

import (
	"context"
	"errors"
)

// JobHandler executes one kind of background job.
type JobHandler interface {
	// Type returns the job type identifier, matching the job_type
	// column in the jobs table.
	Type() string

	// Handle executes the job. The payload is raw JSON from the queue.
	// Wrap the error with NewPermanentError to skip retries.
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError marks a failure that must not be retried; the job goes
// straight to 'failed'.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err so the worker will not retry the job.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err wraps a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
