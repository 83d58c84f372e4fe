package notify

import (
	"fmt"
	"strings"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// AlertSubject returns the one-line title of a high-priority alert
func AlertSubject(records []core.ResultRecord) string {
	if len(records) == 1 {
		return "1 high-priority email"
	}
	return fmt.Sprintf("%d high-priority emails", len(records))
}

// FormatAlert renders the records as a plain text alert body
func FormatAlert(records []core.ResultRecord) string {
	var b strings.Builder
	b.WriteString(AlertSubject(records))
	b.WriteString(":\n")
	for _, rec := range records {
		subject := rec.OriginalSubject
		if strings.TrimSpace(subject) == "" {
			subject = "No subject"
		}
		fmt.Fprintf(&b, "\n* %s (Score: %d)\n", subject, rec.ImportanceScore)
		if rec.Sender != "" {
			fmt.Fprintf(&b, "  From: %s\n", rec.Sender)
		}
		if rec.Summary != "" {
			fmt.Fprintf(&b, "  %s\n", rec.Summary)
		}
		if rec.Link != "" {
			fmt.Fprintf(&b, "  %s\n", rec.Link)
		}
	}
	return b.String()
}
