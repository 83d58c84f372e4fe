package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/llm-mail-digest/internal/adapters/stats"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

// StatsFactory creates stats stores and the run tracker based on configuration
type StatsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStatsFactory creates a new stats factory
func NewStatsFactory(cfg *config.Config, logger *zap.Logger) *StatsFactory {
	return &StatsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStatsStore creates a stats store based on the configuration
func (f *StatsFactory) CreateStatsStore() (core.StatsStore, error) {
	statsCfg := f.cfg.GetStats()

	switch statsCfg.Type {
	case "memory":
		return stats.NewMemoryStore(f.logger), nil
	case "json", "":
		if err := ensureDir(statsCfg.JSONPath); err != nil {
			return nil, fmt.Errorf("failed to create stats directory: %w", err)
		}
		return stats.NewJSONStore(statsCfg.JSONPath, f.logger), nil
	case "sqlite":
		if err := ensureDir(statsCfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return stats.NewSQLiteStore(statsCfg.SQLitePath, f.logger)
	case "mysql":
		return stats.NewMySQLStore(statsCfg.MySQLDSN, f.logger)
	case "postgres":
		return stats.NewPostgresStore(statsCfg.PostgresDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported stats type: %s", statsCfg.Type)
	}
}

// CreateTracker restores the tracker from the store. A snapshot that cannot
// be loaded is returned as an error and is never replaced by zero stats.
func (f *StatsFactory) CreateTracker(store core.StatsStore) (*core.StatsTracker, error) {
	initial, err := store.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	f.logger.Debug("Restored stats", zap.Int("total_runs", initial.TotalRuns))
	return core.NewStatsTracker(initial, f.cfg.GetStats().HistoryLimit), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
