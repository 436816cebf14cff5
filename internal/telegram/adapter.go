package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/captionbot/internal/domain"
	"github.com/set-night/captionbot/internal/handler"
	"github.com/set-night/captionbot/internal/middleware"
)

// photoFilename is given to compressed photos, which carry no name of their own.
const photoFilename = "photo.jpg"

type fetchFunc func(ctx context.Context, fileID string) ([]byte, error)

// Adapter feeds Telegram updates into the shared message handler.
type Adapter struct {
	bot       *bot.Bot
	messenger *Messenger
	handler   *handler.Handler

	botID       int64
	botUsername string
}

// NewAdapter creates the Bot API client. Updates are not received until Run.
func NewAdapter(token string) (*Adapter, error) {
	a := &Adapter{}

	b, err := bot.New(token,
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
		),
		bot.WithDefaultHandler(a.handleUpdate),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	a.bot = b
	a.messenger = NewMessenger(b)
	return a, nil
}

// Bot exposes the underlying client, e.g. for the operator log.
func (a *Adapter) Bot() *bot.Bot {
	return a.bot
}

// Run polls for updates until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context, h *handler.Handler) error {
	me, err := a.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	a.handler = h
	a.botID = me.ID
	a.botUsername = me.Username

	slog.Info("logged in", "platform", "telegram", "username", me.Username, "id", me.ID)
	a.bot.Start(ctx)
	slog.Info("telegram polling stopped")
	return nil
}

func (a *Adapter) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if a.handler == nil {
		return
	}
	msg, ok := toMessage(update.Message, a.botID, a.botUsername, func(ctx context.Context, fileID string) ([]byte, error) {
		return DownloadFile(ctx, b, fileID)
	})
	if !ok {
		return
	}
	// In-flight captions outlive the polling context and finish during shutdown.
	a.handler.Dispatch(context.WithoutCancel(ctx), a.messenger, msg)
}

func toMessage(m *models.Message, botID int64, botUsername string, fetch fetchFunc) (domain.Message, bool) {
	if m == nil || m.From == nil {
		return domain.Message{}, false
	}

	text := m.Text
	if text == "" {
		text = m.Caption
	}

	author := m.From.Username
	if author == "" {
		author = m.From.FirstName
	}

	msg := domain.Message{
		ID:         fmt.Sprintf("%d:%d", m.Chat.ID, m.ID),
		AuthorID:   strconv.FormatInt(m.From.ID, 10),
		AuthorName: author,
		ChannelID:  strconv.FormatInt(m.Chat.ID, 10),
		IsSelf:     botID != 0 && m.From.ID == botID,
		Text:       stripMention(text, botUsername),
	}

	if m.Document != nil {
		msg.Attachments = append(msg.Attachments, attachment(m.Document.FileID, m.Document.FileName, int(m.Document.FileSize), fetch))
	}
	if len(m.Photo) > 0 {
		// Telegram lists photo sizes smallest first.
		photo := m.Photo[len(m.Photo)-1]
		msg.Attachments = append(msg.Attachments, attachment(photo.FileID, photoFilename, int(photo.FileSize), fetch))
	}

	return msg, true
}

func attachment(fileID, filename string, size int, fetch fetchFunc) domain.Attachment {
	return domain.Attachment{
		Filename: filename,
		Size:     size,
		Read: func(ctx context.Context) ([]byte, error) {
			return fetch(ctx, fileID)
		},
	}
}

// stripMention turns "/image@my_bot rest" into "/image rest" so group
// commands addressed to this bot match like private ones.
func stripMention(text, botUsername string) string {
	if botUsername == "" {
		return text
	}
	first, rest, _ := strings.Cut(text, " ")
	if trimmed, ok := strings.CutSuffix(first, "@"+botUsername); ok {
		if rest == "" {
			return trimmed
		}
		return trimmed + " " + rest
	}
	return text
}
