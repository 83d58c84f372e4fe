package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for an OpenAI-compatible endpoint
type OpenAIConfig struct {
	APIKey           string
	APIKeyKeyringKey string
	BaseURL          string
	ModelName        string
	MaxTokens        int
	Temperature      float32
	Timeout          time.Duration
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// MailboxConfig represents the IMAP mailbox configuration
type MailboxConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	PasswordKeyringKey string
	TLS                bool
	Folder             string
	MarkRead           string
	LinkFormat         string
}

// KeyringConfig represents the OS keyring settings used for secrets
type KeyringConfig struct {
	Service string
	Backend string
}

// AutomationConfig represents the run and schedule settings
type AutomationConfig struct {
	Interval          time.Duration
	MaxMessagesPerRun int
	MaxConcurrency    int
	BodyLimit         int
}

// StatsConfig represents the stats store configuration
type StatsConfig struct {
	Type         string
	JSONPath     string
	SQLitePath   string
	MySQLDSN     string
	PostgresDSN  string
	HistoryLimit int
}

// ExportConfig represents the CSV export configuration
type ExportConfig struct {
	Enabled bool
	Dir     string
}

// SMTPConfig represents the SMTP notifier configuration
type SMTPConfig struct {
	Address  string
	Username string
	Password string
	From     string
	To       []string
	TLSMode  string
}

// TelegramConfig represents the Telegram notifier configuration
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	timeout, err := c.GetDuration("openai.timeout")
	if err != nil {
		timeout = 60 * time.Second
	}
	return OpenAIConfig{
		APIKey:           c.GetString("openai.api_key"),
		APIKeyKeyringKey: c.GetString("openai.api_key_keyring_key"),
		BaseURL:          c.GetString("openai.base_url"),
		ModelName:        c.GetString("openai.model_name"),
		MaxTokens:        c.GetInt("openai.max_tokens"),
		Temperature:      float32(c.GetFloat64("openai.temperature")),
		Timeout:          timeout,
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetMailbox returns the mailbox configuration
func (c *Config) GetMailbox() MailboxConfig {
	return MailboxConfig{
		Host:               c.GetString("mailbox.host"),
		Port:               c.GetInt("mailbox.port"),
		Username:           c.GetString("mailbox.username"),
		Password:           c.GetString("mailbox.password"),
		PasswordKeyringKey: c.GetString("mailbox.password_keyring_key"),
		TLS:                c.GetBool("mailbox.tls"),
		Folder:             c.GetString("mailbox.folder"),
		MarkRead:           c.GetString("mailbox.mark_read"),
		LinkFormat:         c.GetString("mailbox.link_format"),
	}
}

// GetKeyring returns the keyring configuration
func (c *Config) GetKeyring() KeyringConfig {
	return KeyringConfig{
		Service: c.GetString("keyring.service"),
		Backend: c.GetString("keyring.backend"),
	}
}

// GetAutomation returns the automation configuration
func (c *Config) GetAutomation() AutomationConfig {
	return AutomationConfig{
		Interval:          time.Duration(c.GetInt("automation.interval_minutes")) * time.Minute,
		MaxMessagesPerRun: c.GetInt("automation.max_messages_per_run"),
		MaxConcurrency:    c.GetInt("automation.max_concurrency"),
		BodyLimit:         c.GetInt("automation.body_limit"),
	}
}

// GetStats returns the stats store configuration
func (c *Config) GetStats() StatsConfig {
	return StatsConfig{
		Type:         c.GetString("stats.type"),
		JSONPath:     c.GetString("stats.json_path"),
		SQLitePath:   c.GetString("stats.sqlite_path"),
		MySQLDSN:     c.GetString("stats.mysql_dsn"),
		PostgresDSN:  c.GetString("stats.postgres_dsn"),
		HistoryLimit: c.GetInt("stats.history_limit"),
	}
}

// GetExport returns the export configuration
func (c *Config) GetExport() ExportConfig {
	return ExportConfig{
		Enabled: c.GetBool("export.enabled"),
		Dir:     c.GetString("export.dir"),
	}
}

// GetNotifyType returns the configured notifier type
func (c *Config) GetNotifyType() string {
	return c.GetString("notify.type")
}

// GetSMTP returns the SMTP notifier configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Address:  c.GetString("smtp.address"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		From:     c.GetString("smtp.from"),
		To:       c.GetStringSlice("smtp.to"),
		TLSMode:  c.GetString("smtp.tls_mode"),
	}
}

// GetTelegram returns the Telegram notifier configuration
func (c *Config) GetTelegram() TelegramConfig {
	return TelegramConfig{
		BotToken: c.GetString("telegram.bot_token"),
		ChatID:   c.GetInt64("telegram.chat_id"),
	}
}

// GetIgnoredDomains returns the sender domains skipped before scoring
func (c *Config) GetIgnoredDomains() []string {
	return c.GetStringSlice("filter.ignored_domains")
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
		File:   c.GetString("logging.file"),
	}
}
