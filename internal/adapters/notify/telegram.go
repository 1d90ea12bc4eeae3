package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrNoChat is returned when neither a chat nor a default chat is configured.
var ErrNoChat = errors.New("telegram chat id not configured")

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	defaultChat int64
}

// NewTelegramNotifier authenticates the bot token.
// PRE: token is a bot token issued by BotFather
func NewTelegramNotifier(token string, defaultChat int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = false
	slog.Info("notify_event", "event", "telegram_ready", "bot", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, defaultChat: defaultChat}, nil
}

// Notify sends text as a plain message. The Bot API call is not cancellable,
// so ctx is only checked before sending.
func (t *TelegramNotifier) Notify(ctx context.Context, chatID int64, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if chatID == 0 {
		chatID = t.defaultChat
	}
	if chatID == 0 {
		return "", ErrNoChat
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	sent, err := t.bot.Send(msg)
	if err != nil {
		return "", fmt.Errorf("telegram send: %w", err)
	}
	return strconv.Itoa(sent.MessageID), nil
}
