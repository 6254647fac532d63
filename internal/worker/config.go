package worker

import (
	"fmt"
	"time"
)

// Config holds the background worker pool configuration.
type Config struct {
	// Concurrency is the number of polling goroutines.
	Concurrency int

	// PollInterval is how often an idle worker checks the queue.
	PollInterval time.Duration

	// JobTimeout bounds a single job execution.
	JobTimeout time.Duration

	// ShutdownTimeout bounds the wait for running jobs on Stop.
	ShutdownTimeout time.Duration

	// StaleJobThreshold is how old a 'running' job must be before
	// startup recovery resets it to pending.
	StaleJobThreshold time.Duration

	// RetryBaseDelay is the base for the exponential retry backoff.
	RetryBaseDelay time.Duration
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        5 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
		RetryBaseDelay:    30 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Concurrency > 100 {
		return fmt.Errorf("concurrency too high (max 100), got %d", c.Concurrency)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll interval must be at least 1 second, got %v", c.PollInterval)
	}
	if c.JobTimeout < time.Second {
		return fmt.Errorf("job timeout must be at least 1 second, got %v", c.JobTimeout)
	}
	if c.ShutdownTimeout < time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	if c.StaleJobThreshold < time.Minute {
		return fmt.Errorf("stale job threshold must be at least 1 minute, got %v", c.StaleJobThreshold)
	}
	if c.RetryBaseDelay < time.Second {
		return fmt.Errorf("retry base delay must be at least 1 second, got %v", c.RetryBaseDelay)
	}
	return nil
}
