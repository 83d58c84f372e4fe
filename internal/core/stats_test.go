package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsTracker_RecordRun(t *testing.T) {
	tracker := NewStatsTracker(RunStats{}, 0)
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	entry := tracker.RecordRun(ts, 4, 1, 1500*time.Millisecond)

	stats := tracker.Snapshot()
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 4, stats.TotalMessagesProcessed)
	assert.Equal(t, 1, stats.HighImportanceCount)
	assert.InDelta(t, 1.5, stats.AverageProcessingTime, 1e-9)
	require.Len(t, stats.History, 1)
	assert.Equal(t, entry, stats.History[0])
	assert.Equal(t, ts, entry.Timestamp)
	assert.NotEmpty(t, entry.RunID)
}

func TestStatsTracker_ZeroMessageRunIsCounted(t *testing.T) {
	tracker := NewStatsTracker(RunStats{}, 0)

	tracker.RecordRun(time.Now(), 0, 0, time.Second)

	stats := tracker.Snapshot()
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 0, stats.TotalMessagesProcessed)
	assert.Len(t, stats.History, 1)
}

func TestStatsTracker_HistoryBoundAndMean(t *testing.T) {
	tracker := NewStatsTracker(RunStats{}, 0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var sum float64
	for i := 1; i <= 101; i++ {
		d := time.Duration(i) * 100 * time.Millisecond
		sum += d.Seconds()
		tracker.RecordRun(base.Add(time.Duration(i)*time.Minute), i, 0, d)
	}

	stats := tracker.Snapshot()
	assert.Equal(t, 101, stats.TotalRuns)
	require.Len(t, stats.History, 100)
	assert.Equal(t, 2, stats.History[0].MessagesProcessed, "oldest run evicted")
	assert.Equal(t, 101, stats.History[99].MessagesProcessed)
	for i := 1; i < len(stats.History); i++ {
		assert.True(t, stats.History[i].Timestamp.After(stats.History[i-1].Timestamp))
	}
	assert.InDelta(t, sum/101, stats.AverageProcessingTime, 1e-9)
}

func TestStatsTracker_ResumesFromSnapshot(t *testing.T) {
	initial := RunStats{
		TotalRuns:              3,
		TotalMessagesProcessed: 10,
		HighImportanceCount:    2,
		AverageProcessingTime:  2.0,
		History:                []RunEntry{{MessagesProcessed: 1}, {MessagesProcessed: 2}, {MessagesProcessed: 3}},
	}
	tracker := NewStatsTracker(initial, 2)

	tracker.RecordRun(time.Now(), 5, 1, 6*time.Second)

	stats := tracker.Snapshot()
	assert.Equal(t, 4, stats.TotalRuns)
	assert.Equal(t, 15, stats.TotalMessagesProcessed)
	assert.Equal(t, 3, stats.HighImportanceCount)
	assert.InDelta(t, 3.0, stats.AverageProcessingTime, 1e-9)
	require.Len(t, stats.History, 2)
	assert.Equal(t, 3, stats.History[0].MessagesProcessed)
	assert.Equal(t, 5, stats.History[1].MessagesProcessed)

	assert.Len(t, initial.History, 3, "seed snapshot must not be mutated")
}

func TestStatsTracker_SnapshotIsCopy(t *testing.T) {
	tracker := NewStatsTracker(RunStats{}, 0)
	tracker.RecordRun(time.Now(), 1, 0, time.Second)

	snap := tracker.Snapshot()
	snap.History[0].MessagesProcessed = 99
	snap.TotalRuns = 42

	fresh := tracker.Snapshot()
	assert.Equal(t, 1, fresh.TotalRuns)
	assert.Equal(t, 1, fresh.History[0].MessagesProcessed)
}

func TestParseRunTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"rfc3339", "2024-05-01T09:30:00Z", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		{"rfc3339 with offset", "2024-05-01T09:30:00.5+02:00", time.Date(2024, 5, 1, 7, 30, 0, 500000000, time.UTC)},
		{"zoneless microseconds", "2025-07-01T10:00:00.123456", time.Date(2025, 7, 1, 10, 0, 0, 123456000, time.Local)},
		{"zoneless seconds", "2025-07-01T10:00:00", time.Date(2025, 7, 1, 10, 0, 0, 0, time.Local)},
		{"space separator", "2025-07-01 10:00:00", time.Date(2025, 7, 1, 10, 0, 0, 0, time.Local)},
		{"empty", "", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRunTimestamp(tt.value)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseRunTimestamp("last tuesday")
	assert.Error(t, err)
}

func TestRunEntry_UnmarshalJSON(t *testing.T) {
	var entry RunEntry
	err := json.Unmarshal([]byte(`{"run_id": "r1", "timestamp": "2025-07-01T10:00:00.123456", "emails_processed": 4, "high_importance_count": 2, "processing_time": 1.5}`), &entry)

	require.NoError(t, err)
	assert.Equal(t, "r1", entry.RunID)
	assert.True(t, time.Date(2025, 7, 1, 10, 0, 0, 123456000, time.Local).Equal(entry.Timestamp))
	assert.Equal(t, 4, entry.MessagesProcessed)
	assert.Equal(t, 2, entry.HighImportanceCount)
	assert.InDelta(t, 1.5, entry.ProcessingTime, 1e-9)

	roundTrip, err := json.Marshal(entry)
	require.NoError(t, err)
	var again RunEntry
	require.NoError(t, json.Unmarshal(roundTrip, &again))
	assert.True(t, entry.Timestamp.Equal(again.Timestamp))
}
