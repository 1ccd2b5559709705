package alerts

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
)

// TelegramAlerter sends alerts to the operator's Telegram chat
type TelegramAlerter struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramAlerter creates a Telegram-based alerter from config.
// It validates the token against the Telegram API at startup.
func NewTelegramAlerter(cfg config.TelegramConfig) (*TelegramAlerter, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("chat id is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	log.Info().
		Str("bot_username", api.Self.UserName).
		Int64("chat_id", cfg.ChatID).
		Msg("Telegram alerter initialized")

	return &TelegramAlerter{
		api:    api,
		chatID: cfg.ChatID,
	}, nil
}

// Send delivers an alert to the configured chat
func (t *TelegramAlerter) Send(ctx context.Context, alert Alert) error {
	msg := tgbotapi.NewMessage(t.chatID, formatAlert(alert))
	msg.ParseMode = "Markdown"

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}

	log.Debug().
		Str("alert_title", alert.Title).
		Msg("Telegram alert sent")

	return nil
}

// formatAlert renders an alert as a Markdown Telegram message
func formatAlert(alert Alert) string {
	var emoji string
	switch alert.Severity {
	case SeverityCritical:
		emoji = "🚨"
	case SeverityWarning:
		emoji = "⚠️"
	case SeverityInfo:
		emoji = "ℹ️"
	default:
		emoji = "📢"
	}

	message := fmt.Sprintf("%s *%s*\n\n%s", emoji, alert.Title, alert.Message)

	if len(alert.Metadata) > 0 {
		message += "\n\n*Details:*"
		for key, value := range alert.Metadata {
			message += fmt.Sprintf("\n• %s: `%v`", key, value)
		}
	}

	message += fmt.Sprintf("\n\n_Time: %s_", alert.Timestamp.Format("2006-01-02 15:04:05"))

	return message
}
