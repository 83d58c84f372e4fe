package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

const (
	statsTable = "digest_stats"
	runsTable  = "digest_runs"
	statsRowID = 1
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS digest_stats (
		id INTEGER PRIMARY KEY,
		total_runs INTEGER NOT NULL,
		total_emails_processed INTEGER NOT NULL,
		high_importance_emails INTEGER NOT NULL,
		average_processing_time DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS digest_runs (
		seq INTEGER PRIMARY KEY,
		run_id VARCHAR(64) NOT NULL,
		run_at VARCHAR(64) NOT NULL,
		emails_processed INTEGER NOT NULL,
		high_importance_count INTEGER NOT NULL,
		processing_time DOUBLE PRECISION NOT NULL
	)`,
}

type statsRow struct {
	TotalRuns             int     `db:"total_runs"`
	TotalEmailsProcessed  int     `db:"total_emails_processed"`
	HighImportanceEmails  int     `db:"high_importance_emails"`
	AverageProcessingTime float64 `db:"average_processing_time"`
}

type runRow struct {
	RunID               string  `db:"run_id"`
	RunAt               string  `db:"run_at"`
	EmailsProcessed     int     `db:"emails_processed"`
	HighImportanceCount int     `db:"high_importance_count"`
	ProcessingTime      float64 `db:"processing_time"`
}

// SQLStore is a SQL implementation of the StatsStore interface. The aggregate
// counters live in a single row and the history is rewritten on every save.
type SQLStore struct {
	db          *sqlx.DB
	placeholder sq.PlaceholderFormat
	logger      *zap.Logger
}

// NewSQLiteStore creates a new SQLite stats store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLStore, error) {
	return newSQLStore("sqlite3", dbPath, sq.Question, false, logger)
}

// NewMySQLStore creates a new MySQL stats store
func NewMySQLStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	return newSQLStore("mysql", dsn, sq.Question, true, logger)
}

// NewPostgresStore creates a new PostgreSQL stats store
func NewPostgresStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	return newSQLStore("postgres", dsn, sq.Dollar, true, logger)
}

func newSQLStore(driver, dsn string, placeholder sq.PlaceholderFormat, ping bool, logger *zap.Logger) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if ping {
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &SQLStore{db: db, placeholder: placeholder, logger: logger}, nil
}

// Load reads the aggregate row and the run history in insertion order
func (s *SQLStore) Load(ctx context.Context) (core.RunStats, error) {
	stats := core.RunStats{History: []core.RunEntry{}}

	query, args, err := sq.Select("total_runs", "total_emails_processed", "high_importance_emails", "average_processing_time").
		From(statsTable).
		Where(sq.Eq{"id": statsRowID}).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build stats query: %w", err)
	}

	var row statsRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stats, nil
		}
		return stats, fmt.Errorf("failed to query stats: %w", err)
	}
	stats.TotalRuns = row.TotalRuns
	stats.TotalMessagesProcessed = row.TotalEmailsProcessed
	stats.HighImportanceCount = row.HighImportanceEmails
	stats.AverageProcessingTime = row.AverageProcessingTime

	query, args, err = sq.Select("run_id", "run_at", "emails_processed", "high_importance_count", "processing_time").
		From(runsTable).
		OrderBy("seq").
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build history query: %w", err)
	}

	var runs []runRow
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return stats, fmt.Errorf("failed to query run history: %w", err)
	}
	for _, r := range runs {
		ts, err := core.ParseRunTimestamp(r.RunAt)
		if err != nil {
			s.logger.Warn("Skipping run with unreadable timestamp", zap.String("run_id", r.RunID), zap.Error(err))
			continue
		}
		stats.History = append(stats.History, core.RunEntry{
			RunID:               r.RunID,
			Timestamp:           ts,
			MessagesProcessed:   r.EmailsProcessed,
			HighImportanceCount: r.HighImportanceCount,
			ProcessingTime:      r.ProcessingTime,
		})
	}

	return stats, nil
}

// Save replaces the stored statistics inside a single transaction
func (s *SQLStore) Save(ctx context.Context, stats core.RunStats) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{runsTable, statsTable} {
		query, args, err := sq.Delete(table).PlaceholderFormat(s.placeholder).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete for %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	query, args, err := sq.Insert(statsTable).
		Columns("id", "total_runs", "total_emails_processed", "high_importance_emails", "average_processing_time").
		Values(statsRowID, stats.TotalRuns, stats.TotalMessagesProcessed, stats.HighImportanceCount, stats.AverageProcessingTime).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build stats insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert stats: %w", err)
	}

	if len(stats.History) > 0 {
		insert := sq.Insert(runsTable).
			Columns("seq", "run_id", "run_at", "emails_processed", "high_importance_count", "processing_time").
			PlaceholderFormat(s.placeholder)
		for i, run := range stats.History {
			insert = insert.Values(i+1, run.RunID, run.Timestamp.UTC().Format(time.RFC3339Nano),
				run.MessagesProcessed, run.HighImportanceCount, run.ProcessingTime)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build history insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert run history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stats: %w", err)
	}

	s.logger.Debug("Stats saved", zap.Int("total_runs", stats.TotalRuns), zap.Int("history", len(stats.History)))
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
