package factory

import (
	"fmt"
	"net/http"

	"github.com/mikey/llm-mail-digest/internal/adapters/openai"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/credential"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIFactory creates clients for OpenAI-compatible endpoints
type OpenAIFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	secrets *credential.Store
}

// NewOpenAIFactory creates a new OpenAI factory
func NewOpenAIFactory(cfg *config.Config, logger *zap.Logger, secrets *credential.Store) *OpenAIFactory {
	return &OpenAIFactory{
		cfg:     cfg,
		logger:  logger,
		secrets: secrets,
	}
}

// CreateLLMClient creates an OpenAI LLM client
func (f *OpenAIFactory) CreateLLMClient() (core.LLMClient, error) {
	openaiCfg := f.cfg.GetOpenAI()

	apiKey, err := f.secrets.Resolve(openaiCfg.APIKey, openaiCfg.APIKeyKeyringKey)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	if openaiCfg.BaseURL != "" {
		clientCfg.BaseURL = openaiCfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: openaiCfg.Timeout}

	f.logger.Info("Using OpenAI-compatible endpoint",
		zap.String("base_url", clientCfg.BaseURL),
		zap.String("model", openaiCfg.ModelName))

	return openai.NewOpenAIClient(
		goopenai.NewClientWithConfig(clientCfg),
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		f.logger,
	), nil
}
