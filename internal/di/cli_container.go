package di

import (
	"flag"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/factory"
	"github.com/mikey/llm-mail-digest/internal/logging"
)

// CLIFlags contains all command line flags for the single message scorer
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	ModelName   string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	BodyLimit   int

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags, _ := ParseFlagSet(flag.CommandLine, os.Args[1:])
	return flags
}

// ParseFlagSet registers the scorer flags on fs and parses args
func ParseFlagSet(fs *flag.FlagSet, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}

	// LLM provider flags
	fs.StringVar(&flags.Provider, "provider", "openai", "LLM provider (openai, gemini, bedrock)")
	fs.StringVar(&flags.ModelName, "model", "", "Model name or Bedrock model ID")
	fs.StringVar(&flags.APIKey, "api-key", "", "API key for OpenAI-compatible or Gemini providers")
	fs.StringVar(&flags.BaseURL, "base-url", "", "Base URL of the OpenAI-compatible endpoint")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 300, "Maximum tokens for LLM response")
	fs.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	fs.IntVar(&flags.BodyLimit, "body-limit", 1000, "Maximum body characters sent to the LLM")

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the scorer CLI
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return CreateConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register keyring and factories
	if err := container.Provide(factory.NewSecretStore); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewScoringFactory); err != nil {
		return nil, err
	}

	if err := provideScoring(container); err != nil {
		return nil, err
	}

	return container, nil
}

// CreateConfigFromFlags creates a configuration from command line flags
func CreateConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", flags.Provider)
	v.Set("automation.body_limit", flags.BodyLimit)

	switch flags.Provider {
	case "bedrock":
		if flags.ModelName != "" {
			v.Set("bedrock.model_id", flags.ModelName)
		}
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
	case "gemini":
		v.Set("gemini.api_key", flags.APIKey)
		if flags.ModelName != "" {
			v.Set("gemini.model_name", flags.ModelName)
		}
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
	default:
		apiKey := flags.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GROQ_API_KEY")
		}
		v.Set("openai.api_key", apiKey)
		if flags.BaseURL != "" {
			v.Set("openai.base_url", flags.BaseURL)
		}
		if flags.ModelName != "" {
			v.Set("openai.model_name", flags.ModelName)
		}
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
	}

	return config.NewFromViper(v)
}
