package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	degradedSummaryLimit = 200
	degradedReason       = "Unable to parse structured response"
)

// scoreResponse mirrors the JSON object requested from the LLM. The score is
// decoded leniently since models return it as a number, a float or a string.
type scoreResponse struct {
	Summary         string          `json:"summary"`
	ImportanceScore json.RawMessage `json:"importance_score"`
	ImportanceLevel string          `json:"importance_level"`
	Reason          string          `json:"reason"`
}

// Normalize turns a raw LLM reply into a ScoreRecord. It never fails: replies
// that hold no usable JSON object yield a degraded record.
func Normalize(raw string) ScoreRecord {
	if record, ok := parseScoreRecord(raw); ok {
		return record
	}

	// Try to extract JSON from the text response
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		if record, ok := parseScoreRecord(raw[start : end+1]); ok {
			return record
		}
	}

	return DegradedRecord(raw)
}

// DegradedRecord builds the fallback record for an unparseable reply
func DegradedRecord(raw string) ScoreRecord {
	summary := raw
	if utf8.RuneCountInString(raw) > degradedSummaryLimit {
		summary = string([]rune(raw)[:degradedSummaryLimit]) + "..."
	}

	return ScoreRecord{
		Summary:         summary,
		ImportanceScore: 5,
		ImportanceLevel: LevelMedium,
		Reason:          degradedReason,
	}
}

func parseScoreRecord(text string) (ScoreRecord, bool) {
	var resp scoreResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return ScoreRecord{}, false
	}

	score, ok := parseScore(resp.ImportanceScore)
	if !ok {
		return ScoreRecord{}, false
	}

	return ScoreRecord{
		Summary:         resp.Summary,
		ImportanceScore: score,
		ImportanceLevel: normalizeLevel(resp.ImportanceLevel, score),
		Reason:          resp.Reason,
	}, true
}

// parseScore accepts 7, 7.0 and "7", clamped to [1,10]
func parseScore(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	score := int(math.Round(f))
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score, true
}

func normalizeLevel(level string, score int) string {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case LevelLow, LevelMedium, LevelHigh:
		return l
	}
	return LevelForScore(score)
}

// LevelForScore maps a score onto the 1-4 / 5-7 / 8-10 bands
func LevelForScore(score int) string {
	switch {
	case score >= HighImportanceThreshold:
		return LevelHigh
	case score >= 5:
		return LevelMedium
	default:
		return LevelLow
	}
}
