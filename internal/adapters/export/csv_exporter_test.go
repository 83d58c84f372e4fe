package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func record(index, score int, subject string) core.ResultRecord {
	return core.ResultRecord{
		ScoreRecord: core.ScoreRecord{
			Summary:         "summary of " + subject,
			ImportanceScore: score,
			ImportanceLevel: core.LevelForScore(score),
			Reason:          "reason, with comma",
		},
		OriginalSubject: subject,
		Sender:          "sender@example.com",
		Index:           index,
		Link:            "https://mail/" + subject,
	}
}

func TestFileName(t *testing.T) {
	runAt := time.Date(2024, 7, 9, 14, 5, 3, 0, time.UTC)
	assert.Equal(t, "email_summaries_20240709_140503.csv", FileName(runAt))
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(filepath.Join(dir, "out"), zap.NewNop())
	runAt := time.Date(2024, 7, 9, 14, 5, 3, 0, time.UTC)
	records := []core.ResultRecord{record(1, 3, "low"), record(2, 9, "urgent"), record(3, 6, "later")}

	path, err := exporter.Export(context.Background(), records, runAt)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "email_summaries_20240709_140503.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{
		"summary of urgent", "9", "high", "reason, with comma", "urgent", "2",
		"sender@example.com", "https://mail/urgent", "2024-07-09T14:05:03Z",
	}, rows[1])
	assert.Equal(t, "6", rows[2][1])
	assert.Equal(t, "3", rows[3][1])

	assert.Equal(t, 3, records[0].ImportanceScore, "caller slice left in place")
}

func TestExport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVExporter(t.TempDir(), zap.NewNop()).Export(ctx, nil, time.Now())

	assert.ErrorIs(t, err, context.Canceled)
}
