package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

// JSONStore keeps the statistics in a single JSON document that is
// rewritten in full on every save
type JSONStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONStore creates a new JSON file stats store
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	return &JSONStore{path: path, logger: logger}
}

// Load reads the stats file. A missing file yields zeroed statistics.
func (s *JSONStore) Load(_ context.Context) (core.RunStats, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("No stats file found, starting fresh", zap.String("path", s.path))
		return core.RunStats{History: []core.RunEntry{}}, nil
	}
	if err != nil {
		return core.RunStats{}, fmt.Errorf("failed to read stats file: %w", err)
	}

	var stats core.RunStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return core.RunStats{}, fmt.Errorf("failed to parse stats file %s: %w", s.path, err)
	}
	if stats.History == nil {
		stats.History = []core.RunEntry{}
	}
	return stats, nil
}

// Save overwrites the stats file with the given snapshot
func (s *JSONStore) Save(_ context.Context, stats core.RunStats) error {
	if stats.History == nil {
		stats.History = []core.RunEntry{}
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp stats file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write stats: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace stats file: %w", err)
	}

	s.logger.Info("Successfully saved stats", zap.String("path", s.path))
	return nil
}
