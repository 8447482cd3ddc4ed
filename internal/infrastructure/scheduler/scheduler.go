package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskmaster/recurring/internal/infrastructure/logger"
)

// Scheduler wraps cron-based background jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
}

func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: log.WithComponent("scheduler"),
	}
}

// ScheduleInterval registers a periodic job every given duration. A run that
// is still going when the next tick fires makes that tick a no-op.
func (s *Scheduler) ScheduleInterval(name string, interval time.Duration, job func(ctx context.Context) error) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}

	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(context.Background()); err != nil {
			s.logger.Errorw("Scheduled job failed", "job", name, "duration", time.Since(start), "error", err)
			return
		}
		s.logger.Debugw("Scheduled job finished", "job", name, "duration", time.Since(start))
	})
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
