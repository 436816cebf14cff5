package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/captionbot/internal/config"
)

// TelegramLogger mirrors pipeline failures into an operator chat topic.
type TelegramLogger struct {
	bot     *bot.Bot
	chatID  int64
	topicID int
}

func NewTelegramLogger(b *bot.Bot, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{
		bot:     b,
		chatID:  cfg.LogTelegramChatID,
		topicID: cfg.LogTopicError,
	}
}

// Enabled reports whether an operator chat is configured.
func (l *TelegramLogger) Enabled() bool {
	return l != nil && l.chatID != 0
}

func (l *TelegramLogger) LogError(err error, context string) {
	if !l.Enabled() {
		return
	}
	l.send(formatError(err, context, time.Now()))
}

func (l *TelegramLogger) send(message string) {
	// Truncate if too long
	if len([]rune(message)) > config.MaxTelegramMessageLen {
		message = string([]rune(message)[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.SendTimeout)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.chatID,
		Text:            message,
		MessageThreadID: l.topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "error", err)
	}
}

func formatError(err error, context string, at time.Time) string {
	return fmt.Sprintf("❌ Error\n\nContext: %s\nError: %s\nTime: %s",
		context, err.Error(), at.Format("2006-01-02 15:04:05"))
}
