package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/domain"
)

// Messenger sends and edits channel messages over the REST API.
type Messenger struct {
	session *discordgo.Session
}

func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{session: session}
}

func (m *Messenger) SendText(ctx context.Context, channelID, text string) (domain.MessageRef, error) {
	if channelID == "" {
		return domain.MessageRef{}, fmt.Errorf("channel ID is empty")
	}

	sent, err := withTimeout(ctx, func(ctx context.Context) (*discordgo.Message, error) {
		return m.session.ChannelMessageSend(channelID, fitMessage(text), discordgo.WithContext(ctx))
	})
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("send discord message: %w", err)
	}
	return domain.MessageRef{ChannelID: channelID, MessageID: sent.ID}, nil
}

func (m *Messenger) EditText(ctx context.Context, ref domain.MessageRef, text string) error {
	_, err := withTimeout(ctx, func(ctx context.Context) (*discordgo.Message, error) {
		return m.session.ChannelMessageEdit(ref.ChannelID, ref.MessageID, fitMessage(text), discordgo.WithContext(ctx))
	})
	if err != nil {
		return fmt.Errorf("edit discord message: %w", err)
	}
	return nil
}

// StartTyping refreshes the typing indicator until stop is called or the
// indicator has run for TypingMaxDuration.
func (m *Messenger) StartTyping(ctx context.Context, channelID string) func() {
	ctx, cancel := context.WithTimeout(ctx, config.TypingMaxDuration)

	go func() {
		sendTyping := func() {
			if err := m.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil && ctx.Err() == nil {
				slog.Debug("failed to send typing indicator", "channel_id", channelID, "error", err)
			}
		}

		sendTyping()

		ticker := time.NewTicker(config.TypingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sendTyping()
			}
		}
	}()

	return cancel
}

// withTimeout bounds a REST call by config.SendTimeout even if the client
// ignores cancellation.
func withTimeout(ctx context.Context, call func(context.Context) (*discordgo.Message, error)) (*discordgo.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, config.SendTimeout)
	defer cancel()

	type result struct {
		msg *discordgo.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := call(ctx)
		done <- result{msg: msg, err: err}
	}()

	select {
	case r := <-done:
		return r.msg, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("request timeout: %w", ctx.Err())
	}
}

func fitMessage(text string) string {
	runes := []rune(text)
	if len(runes) <= config.MaxDiscordMessageLen {
		return text
	}
	return string(runes[:config.MaxDiscordMessageLen-3]) + "..."
}
