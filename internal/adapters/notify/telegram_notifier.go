package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

// telegramMaxText is the Telegram limit for one message text
const telegramMaxText = 4096

// TelegramNotifier posts high-priority alerts to a Telegram chat
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(api *tgbotapi.BotAPI, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}, nil
}

// NotifyHighPriority sends the alert text to the configured chat
func (n *TelegramNotifier) NotifyHighPriority(ctx context.Context, records []core.ResultRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := []rune(FormatAlert(records))
	if len(text) > telegramMaxText {
		text = append(text[:telegramMaxText-3], []rune("...")...)
	}

	msg := tgbotapi.NewMessage(n.chatID, string(text))
	msg.DisableWebPagePreview = true
	sent, err := n.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}

	n.logger.Info("High-priority alert sent to Telegram",
		zap.Int64("chat_id", n.chatID),
		zap.Int("message_id", sent.MessageID))
	return nil
}
