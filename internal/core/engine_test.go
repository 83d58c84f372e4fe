package core

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func indexes(records []ResultRecord) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.Index)
	}
	sort.Ints(out)
	return out
}

func TestEngine_EmptyBatch(t *testing.T) {
	scorer := &fakeScorer{}
	engine := NewEngine(scorer, zap.NewNop())

	got := engine.ProcessBatch(context.Background(), nil, 5)

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), scorer.calls.Load())
}

func TestEngine_AllSucceed(t *testing.T) {
	scorer := &fakeScorer{replies: map[int]string{1: scoreJSON(2), 2: scoreJSON(6), 3: scoreJSON(9)}}
	engine := NewEngine(scorer, zap.NewNop())
	msgs := makeMessages(3)

	got := engine.ProcessBatch(context.Background(), msgs, 5)

	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, indexes(got))
	for _, rec := range got {
		msg := msgs[rec.Index-1]
		assert.Equal(t, msg.Subject, rec.OriginalSubject)
		assert.Equal(t, msg.Sender, rec.Sender)
		assert.Equal(t, msg.ID, rec.MessageID)
	}
}

func TestEngine_PartialFailure(t *testing.T) {
	scorer := &fakeScorer{failures: map[int]error{3: errNetwork}}
	engine := NewEngine(scorer, zap.NewNop())

	result := engine.Process(context.Background(), makeMessages(5), 2)

	assert.Len(t, result.Records, 4)
	assert.Equal(t, []int{1, 2, 4, 5}, indexes(result.Records))
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 3, result.Failures[0].Index)
	assert.Equal(t, "uid-3", result.Failures[0].MessageID)
	assert.ErrorIs(t, result.Failures[0].Err, errNetwork)
}

func TestEngine_AllFail(t *testing.T) {
	scorer := &fakeScorer{failures: map[int]error{1: errNetwork, 2: errNetwork}}
	engine := NewEngine(scorer, zap.NewNop())

	got := engine.ProcessBatch(context.Background(), makeMessages(2), 5)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEngine_PanicIsContained(t *testing.T) {
	scorer := &fakeScorer{panics: map[int]bool{2: true}}
	engine := NewEngine(scorer, zap.NewNop())

	result := engine.Process(context.Background(), makeMessages(3), 3)

	assert.Equal(t, []int{1, 3}, indexes(result.Records))
	require.Len(t, result.Failures, 1)
	var failure *ScoringFailure
	require.ErrorAs(t, result.Failures[0].Err, &failure)
	assert.Equal(t, 2, failure.Index)
	assert.Equal(t, StagePanic, failure.Stage)
}

func TestEngine_RespectsConcurrencyLimit(t *testing.T) {
	scorer := &fakeScorer{delay: 20 * time.Millisecond}
	engine := NewEngine(scorer, zap.NewNop())

	got := engine.ProcessBatch(context.Background(), makeMessages(12), 3)

	assert.Len(t, got, 12)
	assert.LessOrEqual(t, scorer.peak.Load(), int32(3))
	assert.Equal(t, int32(12), scorer.calls.Load())
}

func TestEngine_PoolLargerThanBatch(t *testing.T) {
	scorer := &fakeScorer{}
	engine := NewEngine(scorer, zap.NewNop())

	done := make(chan []ResultRecord)
	go func() { done <- engine.ProcessBatch(context.Background(), makeMessages(2), 50) }()

	select {
	case got := <-done:
		assert.Len(t, got, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not return")
	}
}

func TestEngine_DefaultConcurrency(t *testing.T) {
	scorer := &fakeScorer{delay: 20 * time.Millisecond}
	engine := NewEngine(scorer, zap.NewNop())

	got := engine.ProcessBatch(context.Background(), makeMessages(10), 0)

	assert.Len(t, got, 10)
	assert.LessOrEqual(t, scorer.peak.Load(), int32(DefaultConcurrency))
}

func TestEngine_MalformedReplyIsDegraded(t *testing.T) {
	scorer := &fakeScorer{replies: map[int]string{1: "the model rambled"}}
	engine := NewEngine(scorer, zap.NewNop())

	got := engine.ProcessBatch(context.Background(), makeMessages(1), 1)

	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].ImportanceScore)
	assert.Equal(t, "the model rambled", got[0].Summary)
	assert.Equal(t, "Subject 1", got[0].OriginalSubject)
}

func TestEngine_CancelledContext(t *testing.T) {
	scorer := &fakeScorer{}
	engine := NewEngine(scorer, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := engine.Process(ctx, makeMessages(4), 2)

	assert.Empty(t, result.Records)
	assert.Len(t, result.Failures, 4)
	assert.Equal(t, int32(0), scorer.calls.Load())
	assert.ErrorIs(t, result.Failures[0].Err, context.Canceled)
	var failure *ScoringFailure
	require.ErrorAs(t, result.Failures[0].Err, &failure)
	assert.Equal(t, StageCancelled, failure.Stage)
}

func TestEngine_LogsFailureWithIndex(t *testing.T) {
	obsCore, logs := observer.New(zapcore.InfoLevel)
	scorer := &fakeScorer{failures: map[int]error{2: errNetwork}}
	engine := NewEngine(scorer, zap.New(obsCore))

	engine.ProcessBatch(context.Background(), makeMessages(2), 2)

	failed := logs.FilterMessage("Failed to process message").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	assert.Equal(t, int64(2), fields["index"])
	assert.Equal(t, "score", fields["stage"])
}

func TestEngine_LogsPanicStage(t *testing.T) {
	obsCore, logs := observer.New(zapcore.InfoLevel)
	scorer := &fakeScorer{panics: map[int]bool{1: true}}
	engine := NewEngine(scorer, zap.New(obsCore))

	engine.ProcessBatch(context.Background(), makeMessages(1), 1)

	failed := logs.FilterMessage("Failed to process message").All()
	require.Len(t, failed, 1)
	assert.Equal(t, StagePanic, failed[0].ContextMap()["stage"])
}
