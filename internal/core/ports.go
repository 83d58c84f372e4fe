package core

import (
	"context"
	"time"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends a single prompt and returns the raw reply text
	Complete(ctx context.Context, prompt string) (string, error)
}

// Mailbox defines the interface of the mail store the digest reads from
type Mailbox interface {
	// FetchMessages returns up to limit unread messages, indexed from 1
	FetchMessages(ctx context.Context, limit int) ([]Message, error)

	// MarkRead flags the messages with the given IDs as read
	MarkRead(ctx context.Context, ids []string) error
}

// StatsStore persists RunStats snapshots
type StatsStore interface {
	// Load returns the last saved snapshot, or zero stats if none exists
	Load(ctx context.Context) (RunStats, error)

	// Save overwrites the stored snapshot
	Save(ctx context.Context, stats RunStats) error
}

// ResultExporter writes the tabular export of a run
type ResultExporter interface {
	// Export writes the records and returns the destination it wrote to
	Export(ctx context.Context, records []ResultRecord, runAt time.Time) (string, error)
}

// Notifier announces high-importance results
type Notifier interface {
	NotifyHighPriority(ctx context.Context, records []ResultRecord) error
}
