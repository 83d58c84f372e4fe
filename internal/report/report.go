package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// RecentRuns is the number of history entries shown by PrintStats
const RecentRuns = 5

const rule = "------------------------------------------------------------"

// PrintStats writes the aggregate statistics and the most recent runs
func PrintStats(w io.Writer, stats core.RunStats) {
	fmt.Fprintf(w, "\n=== Email Digest Statistics ===\n")
	fmt.Fprintf(w, "Total runs: %d\n", stats.TotalRuns)
	fmt.Fprintf(w, "Total emails processed: %d\n", stats.TotalMessagesProcessed)
	fmt.Fprintf(w, "High-importance emails found: %d\n", stats.HighImportanceCount)
	fmt.Fprintf(w, "Average processing time: %.2f seconds\n", stats.AverageProcessingTime)

	if len(stats.History) == 0 {
		return
	}
	recent := stats.History
	if len(recent) > RecentRuns {
		recent = recent[len(recent)-RecentRuns:]
	}
	fmt.Fprintf(w, "\nLast %d runs:\n", RecentRuns)
	for _, run := range recent {
		fmt.Fprintf(w, "  %s: %d emails, %d high-priority\n",
			run.Timestamp.Local().Format("01/02 15:04"), run.MessagesProcessed, run.HighImportanceCount)
	}
}

// PrintResults writes every record, highest importance first
func PrintResults(w io.Writer, records []core.ResultRecord) {
	sorted := append([]core.ResultRecord(nil), records...)
	core.SortByImportance(sorted)

	fmt.Fprintf(w, "\n=== Email Analysis Summary ===\n")
	for _, rec := range sorted {
		fmt.Fprintf(w, "From: %s; Number: %d\n", rec.Sender, rec.Index)
		fmt.Fprintf(w, "Subject: %s\n", rec.OriginalSubject)
		fmt.Fprintf(w, "Importance: %s\n", Importance(rec.ScoreRecord))
		fmt.Fprintf(w, "Summary: %s\n", rec.Summary)
		fmt.Fprintf(w, "Reason: %s\n", rec.Reason)
		fmt.Fprintln(w, rule)
	}
}

// PrintHighPriority writes a short list of the high importance records
func PrintHighPriority(w io.Writer, records []core.ResultRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(w, "\n=== High Priority Emails ===\n")
	for _, rec := range records {
		fmt.Fprintf(w, "  * %s (Score: %d)\n", subjectOrDefault(rec.OriginalSubject), rec.ImportanceScore)
		if rec.Link != "" {
			fmt.Fprintf(w, "    %s\n", rec.Link)
		}
	}
}

// PrintRunSummary writes the outcome of one digest run
func PrintRunSummary(w io.Writer, run *core.RunReport) {
	if run.Err != nil {
		fmt.Fprintf(w, "Digest run failed: %v\n", run.Err)
		return
	}
	if run.Fetched == 0 {
		fmt.Fprintf(w, "No new emails found\n")
		return
	}
	fmt.Fprintf(w, "Processed %d emails in %.1f seconds\n", run.Fetched, run.Duration.Seconds())
	if run.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d emails from ignored senders\n", run.Skipped)
	}
	if len(run.Failures) > 0 {
		fmt.Fprintf(w, "Failed to score %d emails\n", len(run.Failures))
	}
	fmt.Fprintf(w, "Found %d high-importance emails\n", len(run.HighPriority()))
	if run.ExportPath != "" {
		fmt.Fprintf(w, "Results saved to %s\n", run.ExportPath)
	}
}

// Importance renders a score as "S/10 (LEVEL)"
func Importance(rec core.ScoreRecord) string {
	return fmt.Sprintf("%d/10 (%s)", rec.ImportanceScore, strings.ToUpper(rec.ImportanceLevel))
}

func subjectOrDefault(subject string) string {
	if strings.TrimSpace(subject) == "" {
		return "No subject"
	}
	return subject
}
