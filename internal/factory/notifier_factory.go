package factory

import (
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/llm-mail-digest/internal/adapters/notify"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

// NotifierFactory creates high-priority notifiers based on configuration
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates a notifier based on the configuration. The "none"
// type returns a nil notifier.
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	notifyType := f.cfg.GetNotifyType()

	switch notifyType {
	case "none":
		return nil, nil
	case "console", "":
		return notify.NewConsoleNotifier(os.Stdout), nil
	case "smtp":
		smtpCfg := f.cfg.GetSMTP()
		notifier, err := notify.NewSMTPNotifier(
			smtpCfg.Address,
			smtpCfg.Username,
			smtpCfg.Password,
			smtpCfg.From,
			smtpCfg.To,
			smtpCfg.TLSMode,
			f.logger,
		)
		if err != nil {
			return nil, err
		}
		return notifier, nil
	case "telegram":
		telegramCfg := f.cfg.GetTelegram()
		if telegramCfg.BotToken == "" {
			return nil, fmt.Errorf("telegram bot token is required")
		}
		api, err := tgbotapi.NewBotAPI(telegramCfg.BotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		return notify.NewTelegramNotifier(api, telegramCfg.ChatID, f.logger)
	default:
		return nil, fmt.Errorf("unsupported notify type: %s", notifyType)
	}
}
