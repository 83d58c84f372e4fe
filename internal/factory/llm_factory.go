package factory

import (
	"fmt"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/credential"
	"go.uber.org/zap"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	secrets *credential.Store
}

// NewLLMFactory creates a new LLM factory. secrets may be nil when no
// credential is kept in the keyring.
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, secrets *credential.Store) *LLMFactory {
	return &LLMFactory{
		cfg:     cfg,
		logger:  logger,
		secrets: secrets,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "bedrock":
		return NewBedrockFactory(f.cfg, f.logger).CreateLLMClient()
	case "gemini":
		return NewGeminiFactory(f.cfg, f.logger).CreateLLMClient()
	case "openai", "groq":
		return NewOpenAIFactory(f.cfg, f.logger, f.secrets).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
