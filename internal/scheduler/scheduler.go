package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner performs one digest run
type Runner interface {
	RunOnce(ctx context.Context) *core.RunReport
}

// Scheduler runs the digest immediately and then at a fixed interval
type Scheduler struct {
	runner Runner
	logger *zap.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logger,
	}
}

// Run blocks until ctx is cancelled. onRun, when not nil, receives the
// report of every completed run. Ticks that arrive while a run is still
// active are skipped; a panicking run is logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, onRun func(*core.RunReport)) error {
	if interval <= 0 {
		return fmt.Errorf("invalid schedule interval: %s", interval)
	}

	logger := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	job := cron.FuncJob(func() {
		report := s.runner.RunOnce(ctx)
		if onRun != nil && report != nil {
			onRun(report)
		}
	})

	s.logger.Info("Starting digest monitor", zap.Duration("interval", interval))
	cron.NewChain(cron.Recover(logger)).Then(job).Run()

	c.Schedule(cron.Every(interval), job)
	c.Start()

	<-ctx.Done()
	s.logger.Info("Stopping digest monitor")
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
