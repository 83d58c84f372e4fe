package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HighImportanceThreshold is the lowest importance score counted as high priority
const HighImportanceThreshold = 8

// Importance levels reported by the scoring service
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Message represents one mailbox item to be scored
type Message struct {
	ID         string
	Subject    string
	Body       string
	Sender     string
	Link       string
	ReceivedAt time.Time
	// Index is 1-based and unique within a batch
	Index int
}

// ScoreRecord is the normalized reply of the scoring service
type ScoreRecord struct {
	Summary         string `json:"summary"`
	ImportanceScore int    `json:"importance_score"`
	ImportanceLevel string `json:"importance_level"`
	Reason          string `json:"reason"`
}

// IsHighImportance reports whether the record meets HighImportanceThreshold
func (r ScoreRecord) IsHighImportance() bool {
	return r.ImportanceScore >= HighImportanceThreshold
}

// ResultRecord is a ScoreRecord merged with the identity of its source message
type ResultRecord struct {
	ScoreRecord
	OriginalSubject string    `json:"original_subject"`
	Sender          string    `json:"sender"`
	Index           int       `json:"index"`
	MessageID       string    `json:"-"`
	Link            string    `json:"link,omitempty"`
	ProcessedAt     time.Time `json:"processed_at,omitempty"`
}

// RunEntry is one row of the run history
type RunEntry struct {
	RunID               string    `json:"run_id,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
	MessagesProcessed   int       `json:"emails_processed"`
	HighImportanceCount int       `json:"high_importance_count"`
	// ProcessingTime is expressed in seconds
	ProcessingTime float64 `json:"processing_time"`
}

// localTimestampLayouts are the zone-less forms accepted for run timestamps.
// They are read in the local time zone.
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseRunTimestamp parses an RFC 3339 timestamp or a zone-less ISO 8601
// one such as "2025-07-01T10:00:00.123456". Empty input is the zero time.
func ParseRunTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	for _, layout := range localTimestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized run timestamp %q", value)
}

// UnmarshalJSON accepts both RFC 3339 and zone-less ISO 8601 timestamps
func (e *RunEntry) UnmarshalJSON(data []byte) error {
	type plain RunEntry
	aux := struct {
		Timestamp *string `json:"timestamp"`
		*plain
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.Timestamp = time.Time{}
	if aux.Timestamp == nil {
		return nil
	}
	ts, err := ParseRunTimestamp(*aux.Timestamp)
	if err != nil {
		return err
	}
	e.Timestamp = ts
	return nil
}

// RunStats holds the cross-run aggregate counters and the bounded run history
type RunStats struct {
	TotalRuns              int        `json:"total_runs"`
	TotalMessagesProcessed int        `json:"total_emails_processed"`
	HighImportanceCount    int        `json:"high_importance_emails"`
	AverageProcessingTime  float64    `json:"average_processing_time"`
	History                []RunEntry `json:"runs_history"`
}

// Clone returns a deep copy of the stats
func (s RunStats) Clone() RunStats {
	out := s
	out.History = make([]RunEntry, len(s.History))
	copy(out.History, s.History)
	return out
}
