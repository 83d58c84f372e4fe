package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit is the number of runs kept in RunStats.History
const DefaultHistoryLimit = 100

// StatsTracker accumulates run statistics across digest runs
type StatsTracker struct {
	mu           sync.Mutex
	stats        RunStats
	historyLimit int
}

// NewStatsTracker creates a tracker seeded with a previously saved snapshot
func NewStatsTracker(initial RunStats, historyLimit int) *StatsTracker {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	stats := initial.Clone()
	if len(stats.History) > historyLimit {
		stats.History = stats.History[len(stats.History)-historyLimit:]
	}
	return &StatsTracker{
		stats:        stats,
		historyLimit: historyLimit,
	}
}

// RecordRun folds one run into the statistics
func (t *StatsTracker) RecordRun(timestamp time.Time, messagesProcessed, highImportanceCount int, processingTime time.Duration) RunEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	seconds := processingTime.Seconds()

	t.stats.TotalRuns++
	t.stats.TotalMessagesProcessed += messagesProcessed
	t.stats.HighImportanceCount += highImportanceCount

	n := float64(t.stats.TotalRuns)
	t.stats.AverageProcessingTime = (t.stats.AverageProcessingTime*(n-1) + seconds) / n

	entry := RunEntry{
		RunID:               uuid.NewString(),
		Timestamp:           timestamp,
		MessagesProcessed:   messagesProcessed,
		HighImportanceCount: highImportanceCount,
		ProcessingTime:      seconds,
	}
	t.stats.History = append(t.stats.History, entry)
	if over := len(t.stats.History) - t.historyLimit; over > 0 {
		t.stats.History = append([]RunEntry(nil), t.stats.History[over:]...)
	}

	return entry
}

// Snapshot returns a copy of the current statistics
func (t *StatsTracker) Snapshot() RunStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.Clone()
}
