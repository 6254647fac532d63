package worker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, false},
		{"excessive concurrency", func(c *Config) { c.Concurrency = 500 }, false},
		{"sub-second poll", func(c *Config) { c.PollInterval = 100 * time.Millisecond }, false},
		{"sub-second job timeout", func(c *Config) { c.JobTimeout = 0 }, false},
		{"sub-second shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, false},
		{"sub-minute stale threshold", func(c *Config) { c.StaleJobThreshold = 30 * time.Second }, false},
		{"sub-second retry delay", func(c *Config) { c.RetryBaseDelay = 0 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	base := errors.New("bad payload")

	assert.False(t, IsPermanent(base))
	assert.True(t, IsPermanent(NewPermanentError(base)))
	assert.True(t, IsPermanent(fmt.Errorf("handling job: %w", NewPermanentError(base))))
	assert.False(t, IsPermanent(nil))
}

func TestPermanentError_Unwrap(t *testing.T) {
	base := errors.New("image unreadable")
	err := NewPermanentError(base)

	assert.Equal(t, "image unreadable", err.Error())
	assert.True(t, errors.Is(err, base))
}
