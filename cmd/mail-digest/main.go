package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/di"
	"github.com/mikey/llm-mail-digest/internal/report"
	"github.com/mikey/llm-mail-digest/internal/scheduler"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "Path to config file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] [stats | once | start [interval_minutes] | secret-set <key>]\n\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile, *verbose)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	mode := flag.Arg(0)
	switch mode {
	case "stats":
		err = container.Invoke(showStats)
	case "once":
		err = container.Invoke(runOnce)
	case "", "start":
		err = startMonitor(container, flag.Arg(1))
	case "secret-set":
		err = setSecret(container, flag.Arg(1))
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// showStats prints the persisted run statistics
func showStats(logger *zap.Logger, tracker *core.StatsTracker, store core.StatsStore) {
	report.PrintStats(os.Stdout, tracker.Snapshot())
	closeResources(logger, nil, store)
}

// runOnce performs a single digest run and prints its results
func runOnce(
	logger *zap.Logger,
	service *core.DigestService,
	llmClient core.LLMClient,
	store core.StatsStore,
) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := service.RunOnce(ctx)
	printRun(run)
	report.PrintStats(os.Stdout, service.Stats())

	closeResources(logger, llmClient, store)
	return run.Err
}

// startMonitor runs the digest on a schedule until SIGINT or SIGTERM
func startMonitor(container *dig.Container, intervalArg string) error {
	return container.Invoke(func(
		cfg *config.Config,
		logger *zap.Logger,
		monitor *scheduler.Scheduler,
		service *core.DigestService,
		llmClient core.LLMClient,
		store core.StatsStore,
	) error {
		defer logger.Sync()

		interval := cfg.GetAutomation().Interval
		if intervalArg != "" {
			minutes, err := strconv.Atoi(intervalArg)
			if err != nil || minutes <= 0 {
				return fmt.Errorf("invalid interval %q: expected a positive number of minutes", intervalArg)
			}
			interval = time.Duration(minutes) * time.Minute
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Monitoring mailbox every %s. Press Ctrl+C to stop.\n", interval)
		if err := monitor.Run(ctx, interval, printRun); err != nil {
			return err
		}

		logger.Info("Shutting down...")
		report.PrintStats(os.Stdout, service.Stats())
		closeResources(logger, llmClient, store)
		logger.Info("Shutdown complete")
		return nil
	})
}

// setSecret stores a secret read from stdin in the OS keyring
func setSecret(container *dig.Container, key string) error {
	if key == "" {
		return fmt.Errorf("secret-set requires a keyring key")
	}
	return container.Invoke(func(cfg *config.Config) error {
		secrets, err := di.OpenSecrets(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Enter value for %q: ", key)
		value, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && value == "" {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("empty secret")
		}

		if err := secrets.Set(key, value); err != nil {
			return err
		}
		fmt.Printf("Stored %q in keyring service %q\n", key, cfg.GetKeyring().Service)
		return nil
	})
}

func printRun(run *core.RunReport) {
	fmt.Printf("\n[%s] ", time.Now().Format("2006-01-02 15:04:05"))
	report.PrintRunSummary(os.Stdout, run)
	if len(run.Records) > 0 {
		report.PrintResults(os.Stdout, run.Records)
	}
}

// closeResources releases clients that hold connections
func closeResources(logger *zap.Logger, llmClient core.LLMClient, store core.StatsStore) {
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close stats store", zap.Error(err))
		}
	}
}
