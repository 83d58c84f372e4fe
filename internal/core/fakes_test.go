package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// fakeLLM answers prompts through a user supplied function
type fakeLLM struct {
	calls   atomic.Int32
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	return f.respond(prompt)
}

// fakeScorer answers per message index and tracks concurrency
type fakeScorer struct {
	mu       sync.Mutex
	replies  map[int]string
	failures map[int]error
	panics   map[int]bool
	delay    time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeScorer) Score(_ context.Context, msg Message) (string, error) {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[msg.Index] {
		panic("scorer exploded")
	}
	if err, ok := f.failures[msg.Index]; ok {
		return "", &ScoringFailure{Index: msg.Index, Err: err}
	}
	if reply, ok := f.replies[msg.Index]; ok {
		return reply, nil
	}
	return scoreJSON(5), nil
}

func scoreJSON(score int) string {
	return fmt.Sprintf(`{"summary": "summary %d", "importance_score": %d, "importance_level": "%s", "reason": "because"}`,
		score, score, LevelForScore(score))
}

func makeMessages(n int) []Message {
	msgs := make([]Message, n)
	for i := range msgs {
		msgs[i] = Message{
			ID:      fmt.Sprintf("uid-%d", i+1),
			Subject: fmt.Sprintf("Subject %d", i+1),
			Body:    "body",
			Sender:  fmt.Sprintf("sender%d@example.com", i+1),
			Index:   i + 1,
		}
	}
	return msgs
}

var errNetwork = errors.New("connection reset")

type fakeMailbox struct {
	messages []Message
	fetchErr error
	markErr  error
	marked   []string
	limits   []int
}

func (f *fakeMailbox) FetchMessages(_ context.Context, limit int) ([]Message, error) {
	f.limits = append(f.limits, limit)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.messages, nil
}

func (f *fakeMailbox) MarkRead(_ context.Context, ids []string) error {
	f.marked = append(f.marked, ids...)
	return f.markErr
}

type fakeStore struct {
	saved   []RunStats
	saveErr error
}

func (f *fakeStore) Load(context.Context) (RunStats, error) {
	if len(f.saved) == 0 {
		return RunStats{}, nil
	}
	return f.saved[len(f.saved)-1], nil
}

func (f *fakeStore) Save(_ context.Context, stats RunStats) error {
	f.saved = append(f.saved, stats)
	return f.saveErr
}

type fakeExporter struct {
	exported [][]ResultRecord
	err      error
}

func (f *fakeExporter) Export(_ context.Context, records []ResultRecord, _ time.Time) (string, error) {
	f.exported = append(f.exported, records)
	if f.err != nil {
		return "", f.err
	}
	return "email_summaries_test.csv", nil
}

type fakeNotifier struct {
	notified [][]ResultRecord
}

func (f *fakeNotifier) NotifyHighPriority(_ context.Context, records []ResultRecord) error {
	f.notified = append(f.notified, records)
	return nil
}

type domainFilter string

func (d domainFilter) IsIgnored(sender string) bool {
	return len(sender) > len(d) && sender[len(sender)-len(d):] == string(d)
}
