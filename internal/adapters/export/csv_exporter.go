package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

// Header is the column order of the exported CSV file
var Header = []string{
	"summary",
	"importance_score",
	"importance_level",
	"reason",
	"original_subject",
	"index",
	"sender",
	"link",
	"processed_at",
}

// CSVExporter is an implementation of the ResultExporter interface writing
// one CSV file per run
type CSVExporter struct {
	dir    string
	logger *zap.Logger
}

// NewCSVExporter creates a new CSV exporter writing into dir
func NewCSVExporter(dir string, logger *zap.Logger) *CSVExporter {
	if dir == "" {
		dir = "."
	}
	return &CSVExporter{dir: dir, logger: logger}
}

// FileName returns the export file name for a run started at runAt
func FileName(runAt time.Time) string {
	return fmt.Sprintf("email_summaries_%s.csv", runAt.Format("20060102_150405"))
}

// Export writes the records, highest importance first, and returns the file path
func (e *CSVExporter) Export(ctx context.Context, records []core.ResultRecord, runAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	sorted := append([]core.ResultRecord(nil), records...)
	core.SortByImportance(sorted)

	path := filepath.Join(e.dir, FileName(runAt))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return "", fmt.Errorf("failed to write export header: %w", err)
	}
	for _, rec := range sorted {
		if err := w.Write(row(rec, runAt)); err != nil {
			return "", fmt.Errorf("failed to write export row %d: %w", rec.Index, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	e.logger.Debug("Exported results", zap.String("path", path), zap.Int("rows", len(sorted)))
	return path, nil
}

func row(rec core.ResultRecord, runAt time.Time) []string {
	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = runAt
	}
	return []string{
		rec.Summary,
		strconv.Itoa(rec.ImportanceScore),
		rec.ImportanceLevel,
		rec.Reason,
		rec.OriginalSubject,
		strconv.Itoa(rec.Index),
		rec.Sender,
		rec.Link,
		processedAt.Format(time.RFC3339),
	}
}
