package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the worker pool size used when none is configured
const DefaultConcurrency = 5

// Scorer returns the raw scoring reply for one message
type Scorer interface {
	Score(ctx context.Context, msg Message) (string, error)
}

// Failure describes a message that produced no result
type Failure struct {
	Index     int
	MessageID string
	Err       error
}

// BatchResult holds the outcome of a batch. Records are in completion order.
type BatchResult struct {
	Records  []ResultRecord
	Failures []Failure
}

// Engine fans a batch of messages out to a bounded pool of scoring workers
type Engine struct {
	scorer Scorer
	logger *zap.Logger
}

// outcome is what a worker hands to the collector: exactly one of record or err is set
type outcome struct {
	msg    Message
	record ResultRecord
	err    error
}

// NewEngine creates a new scoring engine
func NewEngine(scorer Scorer, logger *zap.Logger) *Engine {
	return &Engine{
		scorer: scorer,
		logger: logger,
	}
}

// ProcessBatch scores the messages and returns the successful results in
// completion order. It never fails; failed messages are logged and dropped.
func (e *Engine) ProcessBatch(ctx context.Context, messages []Message, maxConcurrency int) []ResultRecord {
	return e.Process(ctx, messages, maxConcurrency).Records
}

// Process scores the messages with at most maxConcurrency calls in flight
func (e *Engine) Process(ctx context.Context, messages []Message, maxConcurrency int) BatchResult {
	result := BatchResult{Records: []ResultRecord{}}
	if len(messages) == 0 {
		return result
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}

	e.logger.Info("Begin processing messages in parallel",
		zap.Int("messages", len(messages)),
		zap.Int("max_concurrency", maxConcurrency))

	outcomes := make(chan outcome, len(messages))

	var g errgroup.Group
	g.SetLimit(maxConcurrency)
	go func() {
		for _, msg := range messages {
			msg := msg
			g.Go(func() error {
				outcomes <- e.processOne(ctx, msg)
				return nil
			})
		}
		_ = g.Wait()
		close(outcomes)
	}()

	for out := range outcomes {
		if out.err != nil {
			e.logger.Error("Failed to process message",
				zap.Int("index", out.msg.Index),
				zap.String("stage", failureStage(out.err)),
				zap.Error(out.err))
			result.Failures = append(result.Failures, Failure{
				Index:     out.msg.Index,
				MessageID: out.msg.ID,
				Err:       out.err,
			})
			continue
		}

		result.Records = append(result.Records, out.record)
		e.logger.Info("Completed processing message",
			zap.Int("index", out.msg.Index),
			zap.Int("total", len(messages)))
	}

	return result
}

func (e *Engine) processOne(ctx context.Context, msg Message) (out outcome) {
	out.msg = msg
	defer func() {
		if r := recover(); r != nil {
			out.err = &ScoringFailure{Index: msg.Index, Stage: StagePanic, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		out.err = &ScoringFailure{Index: msg.Index, Stage: StageCancelled, Err: err}
		return out
	}

	reply, err := e.scorer.Score(ctx, msg)
	if err != nil {
		out.err = err
		return out
	}

	out.record = ResultRecord{
		ScoreRecord:     Normalize(reply),
		OriginalSubject: msg.Subject,
		Sender:          msg.Sender,
		Index:           msg.Index,
		MessageID:       msg.ID,
		Link:            msg.Link,
	}
	return out
}

// failureStage returns the stage recorded on a *ScoringFailure, defaulting
// to StageScore
func failureStage(err error) string {
	var failure *ScoringFailure
	if errors.As(err, &failure) && failure.Stage != "" {
		return failure.Stage
	}
	return StageScore
}
