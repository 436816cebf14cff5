// Package discord connects the message handler to a Discord gateway session.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/set-night/captionbot/internal/domain"
	"github.com/set-night/captionbot/internal/handler"
)

type downloadFunc func(ctx context.Context, url string) ([]byte, error)

// Adapter feeds Discord gateway events into the shared message handler.
type Adapter struct {
	session   *discordgo.Session
	messenger *Messenger
	handler   *handler.Handler
	client    *http.Client
	ctx       context.Context
}

func NewAdapter(token string) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Adapter{
		session:   session,
		messenger: NewMessenger(session),
		client:    &http.Client{},
		ctx:       context.Background(),
	}, nil
}

// Run opens the gateway and blocks until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context, h *handler.Handler) error {
	a.handler = h
	// In-flight captions outlive the gateway and finish during shutdown.
	a.ctx = context.WithoutCancel(ctx)

	a.session.AddHandler(a.handleReady)
	a.session.AddHandler(a.handleMessage)

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	<-ctx.Done()

	if err := a.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	slog.Info("discord session closed")
	return nil
}

func (a *Adapter) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	slog.Info("logged in", "platform", "discord", "username", r.User.Username, "id", r.User.ID)
}

func (a *Adapter) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	var selfID string
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}

	msg, ok := toMessage(m.Message, selfID, a.download)
	if !ok {
		return
	}
	a.handler.Dispatch(a.ctx, a.messenger, msg)
}

func toMessage(m *discordgo.Message, selfID string, download downloadFunc) (domain.Message, bool) {
	if m.Author == nil {
		return domain.Message{}, false
	}

	name := m.Author.Username
	if m.Author.Discriminator != "" && m.Author.Discriminator != "0" {
		name += "#" + m.Author.Discriminator
	}

	msg := domain.Message{
		ID:         m.ID,
		AuthorID:   m.Author.ID,
		AuthorName: name,
		ChannelID:  m.ChannelID,
		IsSelf:     m.Author.ID == selfID,
		Text:       m.Content,
	}

	for _, att := range m.Attachments {
		if att == nil {
			continue
		}
		url := att.URL
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			Filename: att.Filename,
			Size:     att.Size,
			Read: func(ctx context.Context) ([]byte, error) {
				return download(ctx, url)
			},
		})
	}

	return msg, true
}
