package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = time.Minute

// Job is a named unit of periodic work.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Scheduler runs maintenance jobs on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler registers jobs under spec (standard cron syntax or
// descriptors such as "@every 1h").
func NewScheduler(spec string, logger *zap.Logger, jobs ...Job) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	s := &Scheduler{cron: c, logger: logger}
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(spec, func() { s.runJob(job) }); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", job.Name, err)
		}
	}
	return s, nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

// RunNow executes every job once, outside the schedule.
func (s *Scheduler) RunNow(jobs ...Job) {
	for _, job := range jobs {
		s.runJob(job)
	}
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	affected, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.logger.Debug("scheduled job finished",
		zap.String("job", job.Name),
		zap.Int("affected", affected),
		zap.Duration("took", time.Since(started)))
}
