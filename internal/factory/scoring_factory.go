package factory

import (
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/utils"
	"go.uber.org/zap"
)

// ScoringFactory creates the text processor and scoring client
type ScoringFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScoringFactory creates a new ScoringFactory
func NewScoringFactory(cfg *config.Config, logger *zap.Logger) *ScoringFactory {
	return &ScoringFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *ScoringFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateScoringClient creates a scoring client with the configured body limit
func (f *ScoringFactory) CreateScoringClient(llmClient core.LLMClient, textProcessor *utils.TextProcessor) *core.ScoringClient {
	return core.NewScoringClient(llmClient, textProcessor, f.logger, f.cfg.GetAutomation().BodyLimit)
}
