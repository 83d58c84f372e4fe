package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/adapters/export"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/credential"
	"github.com/mikey/llm-mail-digest/internal/factory"
	"github.com/mikey/llm-mail-digest/internal/ignorelist"
	"github.com/mikey/llm-mail-digest/internal/logging"
	"github.com/mikey/llm-mail-digest/internal/scheduler"
	"github.com/mikey/llm-mail-digest/internal/utils"
)

// BuildContainer creates and configures a dependency injection container.
// configFile may be empty to search the default locations; verbose forces
// debug logging.
func BuildContainer(configFile string, verbose bool) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.NewFromFile(configFile)
		if err != nil {
			return nil, err
		}
		if verbose {
			cfg.Set("logging.level", "debug")
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register keyring, nil when no secret lives there
	if err := container.Provide(factory.NewSecretStore); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewScoringFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStatsFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return nil, err
	}

	// Register scoring pipeline
	if err := provideScoring(container); err != nil {
		return nil, err
	}

	// Register mailbox
	if err := container.Provide(func(f *factory.MailboxFactory) (core.Mailbox, error) {
		return f.CreateMailbox()
	}); err != nil {
		return nil, err
	}

	// Register stats store and tracker
	if err := container.Provide(func(f *factory.StatsFactory) (core.StatsStore, error) {
		return f.CreateStatsStore()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.StatsFactory, store core.StatsStore) (*core.StatsTracker, error) {
		return f.CreateTracker(store)
	}); err != nil {
		return nil, err
	}

	// Register exporter
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.ResultExporter {
		exportCfg := cfg.GetExport()
		if !exportCfg.Enabled {
			return nil
		}
		return export.NewCSVExporter(exportCfg.Dir, logger)
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register ignored sender domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.SenderFilter {
		return ignorelist.NewChecker(cfg.GetIgnoredDomains(), logger)
	}); err != nil {
		return nil, err
	}

	// Register digest service
	if err := container.Provide(func(
		cfg *config.Config,
		mailbox core.Mailbox,
		engine *core.Engine,
		tracker *core.StatsTracker,
		store core.StatsStore,
		exporter core.ResultExporter,
		notifier core.Notifier,
		filter core.SenderFilter,
		logger *zap.Logger,
	) *core.DigestService {
		automation := cfg.GetAutomation()
		return core.NewDigestService(mailbox, engine, tracker, store, exporter, notifier, filter, logger,
			core.DigestOptions{
				MaxMessages:    automation.MaxMessagesPerRun,
				MaxConcurrency: automation.MaxConcurrency,
				MarkReadPolicy: cfg.GetMailbox().MarkRead,
			})
	}); err != nil {
		return nil, err
	}

	// Register scheduler
	if err := container.Provide(func(service *core.DigestService, logger *zap.Logger) *scheduler.Scheduler {
		return scheduler.NewScheduler(service, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideScoring registers the LLM client, text processor, scoring client
// and engine. It expects config, logger and the keyring to be provided.
func provideScoring(container *dig.Container) error {
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ScoringFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ScoringFactory, llmClient core.LLMClient, tp *utils.TextProcessor) *core.ScoringClient {
		return f.CreateScoringClient(llmClient, tp)
	}); err != nil {
		return err
	}
	return container.Provide(func(scoring *core.ScoringClient, logger *zap.Logger) *core.Engine {
		return core.NewEngine(scoring, logger)
	})
}

// OpenSecrets opens the configured keyring regardless of whether any
// credential is currently configured to live there
func OpenSecrets(cfg *config.Config) (*credential.Store, error) {
	keyringCfg := cfg.GetKeyring()
	return credential.Open(keyringCfg.Service, keyringCfg.Backend)
}
