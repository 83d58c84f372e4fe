package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/llm-mail-digest/internal/adapters/mailbox"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/di"
	"github.com/mikey/llm-mail-digest/internal/report"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run scores a single RFC 822 message read from a file or stdin
func run(
	flags *di.CLIFlags,
	cfg *config.Config,
	logger *zap.Logger,
	llmClient core.LLMClient,
	scoring *core.ScoringClient,
) error {
	defer logger.Sync()

	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	raw, err := io.ReadAll(emailReader)
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	parsed := mailbox.ParseMessage(raw)

	msg := core.Message{
		ID:      parsed.MessageID,
		Subject: parsed.Subject,
		Sender:  parsed.Sender,
		Body:    parsed.Body,
		Index:   1,
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", msg.Sender)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d characters\n", len([]rune(msg.Body)))

	fmt.Printf("\n=== Analysis ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetLLM().Provider)
	if flags.Verbose {
		fmt.Printf("\n--- Prompt ---\n%s\n--------------\n", scoring.BuildPrompt(msg))
	}

	startTime := time.Now()
	record, err := scoring.Assess(context.Background(), msg)
	if err != nil {
		return fmt.Errorf("failed to score email: %w", err)
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Importance: %s\n", report.Importance(record))
	fmt.Printf("High priority: %t\n", record.IsHighImportance())
	fmt.Printf("Summary: %s\n", record.Summary)
	fmt.Printf("Reason: %s\n", record.Reason)
	fmt.Printf("Processing time: %v\n", duration)

	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	return nil
}
