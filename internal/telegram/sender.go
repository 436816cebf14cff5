package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/domain"
)

// Messenger sends and edits chat messages through the Bot API.
type Messenger struct {
	bot *bot.Bot
}

func NewMessenger(b *bot.Bot) *Messenger {
	return &Messenger{bot: b}
}

// SendText sends text as Markdown and falls back to plain text if Telegram
// refuses to parse it.
func (m *Messenger) SendText(ctx context.Context, channelID, text string) (domain.MessageRef, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return domain.MessageRef{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, config.SendTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      fitMessage(toMarkdownV1(text), config.MaxTelegramMessageLen),
		ParseMode: models.ParseModeMarkdownV1,
	}

	sent, err := m.bot.SendMessage(ctx, params)
	if err != nil {
		slog.Warn("markdown send failed, falling back to plain text", "error", err)
		params.Text = fitMessage(text, config.MaxTelegramMessageLen)
		params.ParseMode = ""
		sent, err = m.bot.SendMessage(ctx, params)
		if err != nil {
			return domain.MessageRef{}, fmt.Errorf("send message: %w", err)
		}
	}

	return domain.MessageRef{
		ChannelID: channelID,
		MessageID: strconv.Itoa(sent.ID),
	}, nil
}

// EditText replaces the text of a message sent earlier.
func (m *Messenger) EditText(ctx context.Context, ref domain.MessageRef, text string) error {
	chatID, err := parseChatID(ref.ChannelID)
	if err != nil {
		return err
	}
	messageID, err := strconv.Atoi(ref.MessageID)
	if err != nil {
		return fmt.Errorf("parse message id %q: %w", ref.MessageID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, config.SendTimeout)
	defer cancel()

	_, err = m.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      fitMessage(toMarkdownV1(text), config.MaxTelegramMessageLen),
		ParseMode: models.ParseModeMarkdownV1,
	})
	if err != nil {
		_, err = m.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      fitMessage(text, config.MaxTelegramMessageLen),
		})
	}
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// StartTyping sends "typing..." action periodically until the returned stop function is called.
func (m *Messenger) StartTyping(ctx context.Context, channelID string) func() {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(config.TypingInterval)
		defer ticker.Stop()
		// Send immediately
		m.sendTyping(ctx, chatID)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sendTyping(ctx, chatID)
			}
		}
	}()
	return cancel
}

func (m *Messenger) sendTyping(ctx context.Context, chatID int64) {
	if _, err := m.bot.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	}); err != nil && ctx.Err() == nil {
		slog.Debug("send chat action failed", "chat_id", chatID, "error", err)
	}
}

func parseChatID(channelID string) (int64, error) {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse chat id %q: %w", channelID, err)
	}
	return chatID, nil
}
