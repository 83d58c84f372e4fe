package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mark-read policies for fetched messages
const (
	// MarkReadOnFetch marks every fetched message read, so failed messages are not retried
	MarkReadOnFetch = "fetch"
	// MarkReadOnSuccess leaves failed messages unread for the next run
	MarkReadOnSuccess = "processed"
)

// SenderFilter decides which senders are skipped before scoring
type SenderFilter interface {
	IsIgnored(sender string) bool
}

// DigestOptions holds the run-level settings of the digest service
type DigestOptions struct {
	MaxMessages    int
	MaxConcurrency int
	MarkReadPolicy string
}

// RunReport summarizes one digest run
type RunReport struct {
	RunAt      time.Time
	Fetched    int
	Skipped    int
	Records    []ResultRecord
	Failures   []Failure
	ExportPath string
	Duration   time.Duration
	Entry      RunEntry
	Err        error
}

// HighPriority returns the records at or above HighImportanceThreshold
func (r *RunReport) HighPriority() []ResultRecord {
	var out []ResultRecord
	for _, rec := range r.Records {
		if rec.IsHighImportance() {
			out = append(out, rec)
		}
	}
	return out
}

// ErrRunInProgress is reported when a run is requested while another is active
var ErrRunInProgress = errors.New("digest run already in progress")

// DigestService runs the fetch, score, export and bookkeeping cycle
type DigestService struct {
	mailbox  Mailbox
	engine   *Engine
	tracker  *StatsTracker
	store    StatsStore
	exporter ResultExporter
	notifier Notifier
	filter   SenderFilter
	logger   *zap.Logger
	opts     DigestOptions
	now      func() time.Time
	running  sync.Mutex
}

// NewDigestService creates a new digest service. exporter, notifier and
// filter may be nil.
func NewDigestService(
	mailbox Mailbox,
	engine *Engine,
	tracker *StatsTracker,
	store StatsStore,
	exporter ResultExporter,
	notifier Notifier,
	filter SenderFilter,
	logger *zap.Logger,
	opts DigestOptions,
) *DigestService {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultConcurrency
	}
	if opts.MarkReadPolicy == "" {
		opts.MarkReadPolicy = MarkReadOnFetch
	}
	return &DigestService{
		mailbox:  mailbox,
		engine:   engine,
		tracker:  tracker,
		store:    store,
		exporter: exporter,
		notifier: notifier,
		filter:   filter,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// Stats returns the current run statistics
func (s *DigestService) Stats() RunStats {
	return s.tracker.Snapshot()
}

// RunOnce performs one digest run. Failures inside the run are logged and
// reported on the returned report; the run is always recorded in the stats.
func (s *DigestService) RunOnce(ctx context.Context) *RunReport {
	if !s.running.TryLock() {
		s.logger.Warn("Skipping digest run, previous run still active")
		return &RunReport{Err: ErrRunInProgress}
	}
	defer s.running.Unlock()

	start := s.now()
	report := &RunReport{RunAt: start}
	s.logger.Info("Starting digest run", zap.Time("run_at", start))

	messages, err := s.mailbox.FetchMessages(ctx, s.opts.MaxMessages)
	if err != nil {
		s.logger.Error("Failed to fetch messages", zap.Error(err))
		report.Err = err
		s.finish(ctx, report, start)
		return report
	}
	report.Fetched = len(messages)

	if s.opts.MarkReadPolicy == MarkReadOnFetch {
		s.markRead(ctx, report, messageIDs(messages))
	}

	toScore, skipped := s.applyFilter(messages)
	report.Skipped = len(skipped)

	if len(messages) == 0 {
		s.logger.Info("No new messages found")
		s.finish(ctx, report, start)
		return report
	}

	batch := s.engine.Process(ctx, toScore, s.opts.MaxConcurrency)
	report.Failures = batch.Failures

	records := batch.Records
	for i := range records {
		records[i].ProcessedAt = start
	}
	SortByImportance(records)
	report.Records = records

	if len(records) > 0 {
		s.export(ctx, report)
		s.notify(ctx, report)
	} else if len(toScore) > 0 {
		s.logger.Error("Failed to process messages", zap.Int("failures", len(batch.Failures)))
	}

	if s.opts.MarkReadPolicy == MarkReadOnSuccess {
		ids := messageIDs(skipped)
		for _, rec := range records {
			if rec.MessageID != "" {
				ids = append(ids, rec.MessageID)
			}
		}
		s.markRead(ctx, report, ids)
	}

	s.finish(ctx, report, start)
	return report
}

// SortByImportance orders records by importance score, highest first
func SortByImportance(records []ResultRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ImportanceScore > records[j].ImportanceScore
	})
}

func (s *DigestService) applyFilter(messages []Message) (toScore, skipped []Message) {
	if s.filter == nil {
		return messages, nil
	}
	for _, msg := range messages {
		if s.filter.IsIgnored(msg.Sender) {
			s.logger.Info("Skipping message from ignored sender",
				zap.Int("index", msg.Index),
				zap.String("sender", msg.Sender))
			skipped = append(skipped, msg)
			continue
		}
		toScore = append(toScore, msg)
	}
	return toScore, skipped
}

func (s *DigestService) export(ctx context.Context, report *RunReport) {
	if s.exporter == nil {
		return
	}
	path, err := s.exporter.Export(ctx, report.Records, report.RunAt)
	if err != nil {
		s.ioFailure(&BatchIOFailure{Op: "export results", Err: err})
		return
	}
	report.ExportPath = path
	s.logger.Info("Results exported", zap.String("path", path), zap.Int("records", len(report.Records)))
}

func (s *DigestService) notify(ctx context.Context, report *RunReport) {
	high := report.HighPriority()
	if s.notifier == nil || len(high) == 0 {
		return
	}
	if err := s.notifier.NotifyHighPriority(ctx, high); err != nil {
		s.ioFailure(&BatchIOFailure{Op: "notify high priority", Err: err})
	}
}

func (s *DigestService) markRead(ctx context.Context, report *RunReport, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.mailbox.MarkRead(ctx, ids); err != nil {
		s.ioFailure(&BatchIOFailure{Op: "mark messages read", Err: err})
	}
}

func (s *DigestService) finish(ctx context.Context, report *RunReport, start time.Time) {
	report.Duration = s.now().Sub(start)
	high := len(report.HighPriority())

	report.Entry = s.tracker.RecordRun(start, report.Fetched, high, report.Duration)

	if err := s.store.Save(ctx, s.tracker.Snapshot()); err != nil {
		s.ioFailure(&BatchIOFailure{Op: "save stats", Err: err})
	} else {
		s.logger.Debug("Stats saved")
	}

	s.logger.Info("Digest run finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("scored", len(report.Records)),
		zap.Int("failed", len(report.Failures)),
		zap.Int("high_priority", high),
		zap.Duration("duration", report.Duration))
}

func (s *DigestService) ioFailure(err *BatchIOFailure) {
	s.logger.Error("Batch I/O failure", zap.String("op", err.Op), zap.Error(err.Err))
}

func messageIDs(messages []Message) []string {
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.ID != "" {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}
