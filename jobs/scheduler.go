// api/jobs/scheduler.go
package jobs

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic background jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NamedJob is a cron.Job that reports a readable name for logs.
type NamedJob interface {
	cron.Job
	Name() string
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: slog.Default().With("system", "cron"),
	}
}

// Register adds job on the given cron spec ("@every 1m", "*/5 * * * *").
// Log lines from the wrappers carry job.Name().
func (s *Scheduler) Register(spec string, job NamedJob) error {
	jobLogger := s.logger.With("job_name", job.Name())
	wrapped := cron.NewChain(
		recoverWrapper(jobLogger),
		loggingWrapper(jobLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	).Then(job)

	if _, err := s.cron.AddJob(spec, wrapped); err != nil {
		return fmt.Errorf("failed to register job %s with schedule %q: %w", job.Name(), spec, err)
	}
	s.logger.Info("registered periodic job", "job_name", job.Name(), "schedule", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.logger.Info("cron scheduler started")
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}

func loggingWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			jobLogger := logger.With("execution_id", uuid.New().String())
			start := time.Now()
			jobLogger.Debug("job started")
			j.Run()
			jobLogger.Debug("job finished", "duration", time.Since(start))
		})
	}
}

func recoverWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("job panicked",
						"panic", r,
						"stack_trace", string(debug.Stack()),
					)
				}
			}()
			j.Run()
		})
	}
}
