package notify

import (
	"context"
	"io"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/report"
)

// ConsoleNotifier prints high-priority records to a writer
type ConsoleNotifier struct {
	w io.Writer
}

// NewConsoleNotifier creates a new console notifier
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// NotifyHighPriority prints the records
func (n *ConsoleNotifier) NotifyHighPriority(_ context.Context, records []core.ResultRecord) error {
	report.PrintHighPriority(n.w, records)
	return nil
}
