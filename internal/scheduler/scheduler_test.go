package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingRunner struct {
	calls atomic.Int32
	panic bool
}

func (r *countingRunner) RunOnce(context.Context) *core.RunReport {
	n := r.calls.Add(1)
	if r.panic && n == 1 {
		panic("run exploded")
	}
	return &core.RunReport{Fetched: int(n)}
}

func runInBackground(s *Scheduler, ctx context.Context, interval time.Duration, onRun func(*core.RunReport)) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, interval, onRun) }()
	return done
}

func TestScheduler_RunsImmediatelyThenOnInterval(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reports atomic.Int32
	done := runInBackground(s, ctx, time.Second, func(*core.RunReport) { reports.Add(1) })

	require.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, runner.calls.Load(), reports.Load())
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	obsCore, logs := observer.New(zapcore.ErrorLevel)
	runner := &countingRunner{panic: true}
	s := NewScheduler(runner, zap.New(obsCore))
	ctx, cancel := context.WithCancel(context.Background())

	done := runInBackground(s, ctx, time.Hour, nil)

	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return logs.FilterMessage("panic").Len() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestScheduler_RejectsInvalidInterval(t *testing.T) {
	s := NewScheduler(&countingRunner{}, zap.NewNop())

	err := s.Run(context.Background(), 0, nil)

	assert.Error(t, err)
}
