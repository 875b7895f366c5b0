package scheduler

import (
	"context"
	"fmt"
	"time"

	"laundry_manager/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Schedule string
	Run      func()
}

type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New builds a cron runner evaluating schedules in loc. Overlapping runs of
// the same job are skipped.
func New(loc *time.Location, l *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	l = logger.OrNop(l)
	cl := cronLogger{logger: l}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c, logger: l}
}

func (s *Scheduler) Register(jobs ...Job) error {
	for _, job := range jobs {
		if job.Run == nil {
			return fmt.Errorf("job %s has no function", job.Name)
		}
		if _, err := s.cron.AddFunc(job.Schedule, job.Run); err != nil {
			return fmt.Errorf("invalid schedule %q for job %s: %w", job.Schedule, job.Name, err)
		}
		s.logger.Info("registered job", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	}
	return nil
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Run starts the runner and blocks until ctx is done, then waits for running
// jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
