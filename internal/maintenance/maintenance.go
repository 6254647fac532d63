// Package maintenance runs periodic housekeeping: expired sessions and
// invitations, closed rate-limit windows, and stale monthly usage rows.
//
// Quota correctness never depends on these jobs; usage periods roll
// over lazily on read and rate counters are scoped to their window.
// Housekeeping only keeps the tables from accumulating dead rows.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

// Runner schedules the housekeeping jobs.
type Runner struct {
	queries *repository.Queries
	logger  *slog.Logger
	cron    *cron.Cron
}

// New creates a Runner. Call Start to begin scheduling.
func New(queries *repository.Queries, logger *slog.Logger) *Runner {
	return &Runner{
		queries: queries,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start registers the schedules and starts the cron loop.
func (r *Runner) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func(context.Context) (int64, error)
	}{
		// Counters for closed windows are dead weight; sweep hourly.
		{"@hourly", "prune_rate_counters", func(ctx context.Context) (int64, error) {
			return r.queries.PruneExpiredRateCounters(ctx, time.Now().UTC())
		}},
		{"@hourly", "delete_expired_sessions", func(ctx context.Context) (int64, error) {
			return r.queries.DeleteExpiredSessions(ctx)
		}},
		// Pending invitations past their deadline are flipped on read
		// too; the sweep keeps listings consistent for idle tenants.
		{"@hourly", "expire_lapsed_invitations", func(ctx context.Context) (int64, error) {
			return r.queries.ExpireLapsedInvitations(ctx)
		}},
		{"@daily", "reset_stale_usage", func(ctx context.Context) (int64, error) {
			start, end := domain.CurrentPeriod(time.Now())
			return r.queries.ResetStaleUsage(ctx, start, end)
		}},
	}

	for _, job := range jobs {
		job := job
		if _, err := r.cron.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			affected, err := job.run(ctx)
			if err != nil {
				r.logger.Error("maintenance job failed", "job", job.name, "error", err)
				return
			}
			if affected > 0 {
				r.logger.Info("maintenance job completed", "job", job.name, "rows", affected)
			}
		}); err != nil {
			return err
		}
	}

	r.cron.Start()
	r.logger.Info("maintenance scheduler started", "jobs", len(jobs))
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("maintenance scheduler stopped")
}
