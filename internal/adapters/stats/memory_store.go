package stats

import (
	"context"
	"sync"

	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the StatsStore interface.
// Statistics are lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	stats  core.RunStats
	logger *zap.Logger
}

// NewMemoryStore creates a new in-memory stats store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{logger: logger}
}

// Load returns the last saved snapshot
func (s *MemoryStore) Load(_ context.Context) (core.RunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats.Clone(), nil
}

// Save replaces the stored snapshot
func (s *MemoryStore) Save(_ context.Context, stats core.RunStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats.Clone()
	s.logger.Debug("Stats stored in memory", zap.Int("total_runs", stats.TotalRuns))
	return nil
}
