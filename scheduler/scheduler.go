// Package scheduler owns the recurring jobs. Jobs fire at fixed wall-clock
// UTC times rather than on drifting intervals, and an invocation still
// running at its next fire time is skipped, not queued.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	cronLog := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cronLog)),
		),
		logger: logger,
	}
}

// AddJob registers a named job on a cron spec (standard five-field syntax,
// evaluated in UTC). Job errors are logged; the schedule always re-arms for
// the next fire time.
func (s *Scheduler) AddJob(name, spec string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.logger.Info("job started", slog.String("job", name))
		if err := job(context.Background()); err != nil {
			s.logger.Error("job failed", slog.String("job", name), slog.Any("error", err))
			return
		}
		s.logger.Info("job finished",
			slog.String("job", name),
			slog.Duration("took", time.Since(start)))
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger adapts slog to the cron logger interface; cron only speaks up
// when the skip policy kicks in.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, slog.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, slog.Any("error", err), slog.Any("details", keysAndValues))
}
