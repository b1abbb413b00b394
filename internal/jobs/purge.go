// Package jobs runs the portal's periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/corvexa/it-services-portal/internal/metrics"
)

// Purger deletes rows that expired before now.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Target names a table purged by the job.
type Target struct {
	Table  string
	Purger Purger
}

// PurgeJob removes expired one-time codes and reset tokens.  Expired rows
// never verify, so the job only keeps the tables small.
type PurgeJob struct {
	targets []Target
	log     *slog.Logger
	now     func() time.Time
}

func NewPurgeJob(log *slog.Logger, targets ...Target) *PurgeJob {
	if log == nil {
		log = slog.Default()
	}
	return &PurgeJob{targets: targets, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Run purges every target once.  A failing target does not stop the others.
func (j *PurgeJob) Run(ctx context.Context) {
	now := j.now()
	for _, t := range j.targets {
		n, err := t.Purger.PurgeExpired(ctx, now)
		if err != nil {
			j.log.Warn("purge failed", "table", t.Table, "error", err)
			continue
		}
		if n > 0 {
			metrics.PurgedRowsTotal.WithLabelValues(t.Table).Add(float64(n))
			j.log.Info("purged expired rows", "table", t.Table, "rows", n)
		}
	}
}

// Start schedules the job on spec (standard five-field cron syntax) and
// starts the scheduler.  Stop the returned scheduler on shutdown.
func Start(spec string, job *PurgeJob) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		job.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule purge job: %w", err)
	}
	c.Start()
	return c, nil
}
